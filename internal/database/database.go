package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildbid/internal/config"
	"buildbid/internal/model"
)

// Open connects to postgres and applies pool settings.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Connected to database",
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
	)
	return db, nil
}

// Models lists every persisted record, in dependency order.
func Models() []any {
	return []any{
		&model.User{},
		&model.Project{},
		&model.StatusChange{},
		&model.Column{},
		&model.Ticket{},
		&model.Comment{},
		&model.Notification{},
		&model.PushSubscription{},
	}
}

// AutoMigrate creates the schema from the models. Production uses Migrate; this is for
// throwaway databases such as the in-memory sqlite used in tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
