package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/shared"
)

func strPtr(s string) *string { return &s }

func TestGormInventoryItemRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	warehouseID := uuid.New()
	productID := uuid.New()

	t.Run("FindByLocation distinguishes variants from the base product", func(t *testing.T) {
		repo := NewGormInventoryItemRepository(newTestDB(t))
		variantID := uuid.New()

		base, err := inventory.NewInventoryItem(tenantID, warehouseID, productID, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, base))
		variant, err := inventory.NewInventoryItem(tenantID, warehouseID, productID, &variantID)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, variant))

		found, err := repo.FindByLocation(ctx, tenantID, warehouseID, productID, nil)
		require.NoError(t, err)
		assert.Equal(t, base.ID, found.ID)

		found, err = repo.FindByLocation(ctx, tenantID, warehouseID, productID, &variantID)
		require.NoError(t, err)
		assert.Equal(t, variant.ID, found.ID)

		_, err = repo.FindByLocation(ctx, uuid.New(), warehouseID, productID, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate location is a concurrency conflict", func(t *testing.T) {
		repo := NewGormInventoryItemRepository(newTestDB(t))
		first, _ := inventory.NewInventoryItem(tenantID, warehouseID, productID, nil)
		second, _ := inventory.NewInventoryItem(tenantID, warehouseID, productID, nil)

		require.NoError(t, repo.Create(ctx, first))
		err := repo.Create(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("SaveWithLock rejects a stale version", func(t *testing.T) {
		repo := NewGormInventoryItemRepository(newTestDB(t))
		item, _ := inventory.NewInventoryItem(tenantID, warehouseID, productID, nil)
		require.NoError(t, repo.Create(ctx, item))

		stale, err := repo.FindByID(ctx, tenantID, item.ID)
		require.NoError(t, err)

		_, _, err = item.Apply(inventory.MovementPurchase, 10, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, item))
		assert.Equal(t, 2, item.Version)

		_, _, err = stale.Apply(inventory.MovementPurchase, 5, time.Now())
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, stale.Version)

		current, err := repo.FindByID(ctx, tenantID, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), current.Quantity)
		assert.Equal(t, 2, current.Version)
	})

	t.Run("FindAll filters out of stock rows", func(t *testing.T) {
		repo := NewGormInventoryItemRepository(newTestDB(t))
		empty, _ := inventory.NewInventoryItem(tenantID, warehouseID, productID, nil)
		require.NoError(t, repo.Create(ctx, empty))
		stocked, _ := inventory.NewInventoryItem(tenantID, warehouseID, uuid.New(), nil)
		stocked.Quantity = 4
		require.NoError(t, repo.Create(ctx, stocked))

		items, total, err := repo.FindAll(ctx, tenantID, shared.DefaultFilter().With("out_of_stock", true))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, empty.ID, items[0].ID)
	})
}

func TestGormStockMovementRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	item, err := inventory.NewInventoryItem(tenantID, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)

	t.Run("repeated idempotency key is a conflict", func(t *testing.T) {
		repo := NewGormStockMovementRepository(newTestDB(t))
		first := inventory.NewStockMovement(item, inventory.MovementPurchase, 5, 0, 5)
		first.IdempotencyKey = strPtr("po-1")
		second := inventory.NewStockMovement(item, inventory.MovementPurchase, 5, 5, 10)
		second.IdempotencyKey = strPtr("po-1")

		require.NoError(t, repo.Create(ctx, first))
		assert.ErrorIs(t, repo.Create(ctx, second), shared.ErrConcurrencyConflict)

		other := inventory.NewStockMovement(item, inventory.MovementPurchase, 5, 5, 10)
		assert.NoError(t, repo.Create(ctx, other))
	})

	t.Run("FindByIdempotencyKey returns both transfer legs", func(t *testing.T) {
		repo := NewGormStockMovementRepository(newTestDB(t))
		transferID := uuid.New()
		out := inventory.NewStockMovement(item, inventory.MovementTransferOut, 3, 10, 7)
		out.IdempotencyKey = strPtr("tr-1")
		out.TransferID = &transferID
		in := inventory.NewStockMovement(item, inventory.MovementTransferIn, 3, 0, 3)
		in.TransferID = &transferID
		in.CreatedAt = out.CreatedAt.Add(time.Millisecond)

		require.NoError(t, repo.Create(ctx, out))
		require.NoError(t, repo.Create(ctx, in))

		movements, err := repo.FindByIdempotencyKey(ctx, tenantID, "tr-1")
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementTransferOut, movements[0].Type)
		assert.Equal(t, inventory.MovementTransferIn, movements[1].Type)

		movements, err = repo.FindByIdempotencyKey(ctx, tenantID, "missing")
		require.NoError(t, err)
		assert.Empty(t, movements)

		movements, err = repo.FindByIdempotencyKey(ctx, uuid.New(), "tr-1")
		require.NoError(t, err)
		assert.Empty(t, movements)
	})

	t.Run("SumOutbound counts sales in the window", func(t *testing.T) {
		repo := NewGormStockMovementRepository(newTestDB(t))
		require.NoError(t, repo.Create(ctx, inventory.NewStockMovement(item, inventory.MovementSale, 4, 10, 6)))
		require.NoError(t, repo.Create(ctx, inventory.NewStockMovement(item, inventory.MovementSale, 2, 6, 4)))
		require.NoError(t, repo.Create(ctx, inventory.NewStockMovement(item, inventory.MovementPurchase, 20, 4, 24)))

		sum, err := repo.SumOutbound(ctx, tenantID, item.ProductID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(6), sum)

		sum, err = repo.SumOutbound(ctx, tenantID, item.ProductID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, sum)
	})
}

func TestGormLowStockAlertRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormLowStockAlertRepository(newTestDB(t))

	item, err := inventory.NewInventoryItem(tenantID, uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	item.Quantity = 2

	alert := inventory.NewLowStockAlert(item, 5)
	require.NoError(t, repo.Save(ctx, alert))

	found, err := repo.FindUnresolvedByItem(ctx, tenantID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, found.ID)

	count, err := repo.CountOpen(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	alert.Status = inventory.AlertStatusResolved
	require.NoError(t, repo.Save(ctx, alert))

	_, err = repo.FindUnresolvedByItem(ctx, tenantID, item.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	count, err = repo.CountOpen(ctx, tenantID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
