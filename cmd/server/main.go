package main

import (
	"log"

	_ "buildbid/docs"
	"buildbid/internal/config"
	"buildbid/internal/server"

	"go.uber.org/zap"
)

// @title           BuildBid API
// @version         1.0
// @description     Pre-construction bidding pipeline: projects, takeoffs, task board and notifications.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := server.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := server.Init(cfg, logger)
	if err != nil {
		logger.Fatal("Server initialization failed", zap.Error(err))
	}

	if err := s.Run(); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}
