package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartstore/backend/internal/domain/partner"
)

// newTestDB opens an in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
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

	require.NoError(t, db.AutoMigrate(AllModels()...))
	for _, stmt := range UniqueConstraints {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestGormTxManager(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("commits on success", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormWarehouseRepository(db)
		wh, err := partner.NewWarehouse(tenantID, "MAIN", "Main", partner.Address{})
		require.NoError(t, err)

		err = NewGormTxManager(db).WithinTx(ctx, func(ctx context.Context) error {
			return repo.Save(ctx, wh)
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, tenantID, wh.ID)
		require.NoError(t, err)
		assert.Equal(t, "MAIN", found.Code)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormWarehouseRepository(db)
		wh, err := partner.NewWarehouse(tenantID, "MAIN", "Main", partner.Address{})
		require.NoError(t, err)
		boom := errors.New("boom")

		err = NewGormTxManager(db).WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Save(ctx, wh))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.FindByID(ctx, tenantID, wh.ID)
		assert.Error(t, err)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db := newTestDB(t)
		tm := NewGormTxManager(db)
		repo := NewGormWarehouseRepository(db)
		wh, err := partner.NewWarehouse(tenantID, "MAIN", "Main", partner.Address{})
		require.NoError(t, err)

		err = tm.WithinTx(ctx, func(ctx context.Context) error {
			if err := tm.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Save(ctx, wh)
			}); err != nil {
				return err
			}
			return errors.New("outer fails")
		})
		require.Error(t, err)

		_, err = repo.FindByID(ctx, tenantID, wh.ID)
		assert.Error(t, err)
	})
}
