package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"buildbid/internal/database"
	"buildbid/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Name:           name,
		Email:          fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		HashedPassword: "x",
		Role:           role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedColumn(t *testing.T, repo interface {
	Create(context.Context, *model.Column) error
}, title string, position int) *model.Column {
	t.Helper()
	c := &model.Column{Title: title, Position: position}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}
