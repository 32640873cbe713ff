// Package persistencetest opens migrated in-memory databases for service tests.
package persistencetest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartstore/backend/internal/infrastructure/persistence"
)

// NewDB returns a fresh sqlite database with every table and unique index
// created. The connection pool is pinned to one connection so the in-memory
// database survives across queries.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(persistence.AllModels()...))
	for _, stmt := range persistence.UniqueConstraints {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}
