package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"buildbid/internal/client"
	"buildbid/internal/config"
	"buildbid/internal/database"
	"buildbid/internal/job"
	"buildbid/internal/metrics"
	"buildbid/internal/notify"
)

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Config    *config.Config
	Logger    *zap.Logger
	Hub       *notify.Hub
	Scheduler *job.Scheduler
}

// Init connects to every configured backing service and builds the server.
// Redis, S3 and Firebase are optional and skipped when unconfigured.
func Init(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(db, logger); err != nil {
			return nil, err
		}
	}

	rdb, err := database.NewRedis(cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		DB:       db,
		Redis:    rdb,
		Metrics:  metrics.New(logger),
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	}

	ctx := context.Background()
	if cfg.S3.Bucket != "" {
		s3Client, err := client.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to init file storage: %w", err)
		}
		deps.Storage = s3Client
		logger.Info("File storage enabled", zap.String("bucket", cfg.S3.Bucket))
	} else {
		logger.Info("S3 bucket not configured, file uploads disabled")
	}

	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := client.NewFCMClient(ctx, cfg.Firebase.CredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init push messaging: %w", err)
		}
		deps.Push = fcm
	} else {
		logger.Info("Firebase credentials not configured, push notifications disabled")
	}

	return New(cfg, deps)
}

// Run serves until SIGINT or SIGTERM, then drains requests, stops jobs and closes connections.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.Server.Port,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Server running", zap.String("port", s.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		s.Logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		s.Logger.Error("Failed to listen", zap.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	s.Close()

	s.Logger.Info("Server exited properly")
	return runErr
}

// Close stops background work and releases connections.
func (s *Server) Close() {
	s.Scheduler.Stop()
	s.Hub.Close()
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.Logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
