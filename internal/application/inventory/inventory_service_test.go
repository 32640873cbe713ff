package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/persistence/persistencetest"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *capturePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// conflictingItemRepo fails the first SaveWithLock calls with a version conflict
type conflictingItemRepo struct {
	*persistence.GormInventoryItemRepository
	failures int
	calls    int
}

func (r *conflictingItemRepo) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	r.calls++
	if r.calls <= r.failures {
		return shared.ErrConcurrencyConflict
	}
	return r.GormInventoryItemRepository.SaveWithLock(ctx, item)
}

type inventoryFixture struct {
	svc       *InventoryService
	items     *conflictingItemRepo
	publisher *capturePublisher
	tenantID  uuid.UUID
	actorID   uuid.UUID
	product   *catalog.Product
	main      *partner.Warehouse
	backup    *partner.Warehouse
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	ctx := t.Context()

	org, err := identity.NewOrganization("Stock Shop", "stock@test.io")
	require.NoError(t, err)
	orgRepo := persistence.NewGormOrganizationRepository(db)
	require.NoError(t, orgRepo.Save(ctx, org))

	product, err := catalog.NewProduct(org.ID, "MUG-1", "Mug", decimal.NewFromInt(12), "USD")
	require.NoError(t, err)
	threshold := 5
	require.NoError(t, product.SetLowStockThreshold(&threshold))
	productRepo := persistence.NewGormProductRepository(db)
	require.NoError(t, productRepo.Save(ctx, product))

	warehouseRepo := persistence.NewGormWarehouseRepository(db)
	main, err := partner.NewWarehouse(org.ID, "MAIN", "Main", partner.Address{})
	require.NoError(t, err)
	main.IsDefault = true
	require.NoError(t, warehouseRepo.Save(ctx, main))
	backup, err := partner.NewWarehouse(org.ID, "BACKUP", "Backup", partner.Address{})
	require.NoError(t, err)
	require.NoError(t, warehouseRepo.Save(ctx, backup))

	items := &conflictingItemRepo{GormInventoryItemRepository: persistence.NewGormInventoryItemRepository(db)}
	publisher := &capturePublisher{}
	svc := NewInventoryService(
		items,
		persistence.NewGormStockMovementRepository(db),
		persistence.NewGormLowStockAlertRepository(db),
		productRepo,
		warehouseRepo,
		orgRepo,
		persistence.NewGormTxManager(db),
		publisher,
		zap.NewNop(),
	)
	return &inventoryFixture{
		svc:       svc,
		items:     items,
		publisher: publisher,
		tenantID:  org.ID,
		actorID:   uuid.New(),
		product:   product,
		main:      main,
		backup:    backup,
	}
}

func (f *inventoryFixture) record(t *testing.T, movementType string, qty int64) (*MovementResult, error) {
	t.Helper()
	return f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, RecordMovementRequest{
		ProductID: f.product.ID,
		Type:      movementType,
		Quantity:  qty,
	})
}

func (f *inventoryFixture) stock(t *testing.T, warehouseID uuid.UUID) int64 {
	t.Helper()
	item, err := f.items.FindByLocation(t.Context(), f.tenantID, warehouseID, f.product.ID, nil)
	require.NoError(t, err)
	return item.Quantity
}

func TestInventoryService_MovementArithmetic(t *testing.T) {
	f := newInventoryFixture(t)

	res, err := f.record(t, "PURCHASE", 20)
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, int64(0), res.Movements[0].QuantityBefore)
	assert.Equal(t, int64(20), res.Movements[0].QuantityAfter)
	assert.Equal(t, f.main.ID, res.Movements[0].WarehouseID)
	assert.Equal(t, inventory.ReferenceManual, res.Movements[0].ReferenceType)

	_, err = f.record(t, "SALE", 3)
	require.NoError(t, err)
	_, err = f.record(t, "DAMAGE", 2)
	require.NoError(t, err)
	_, err = f.record(t, "RETURN", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(16), f.stock(t, f.main.ID))

	res, err = f.record(t, "ADJUSTMENT", 40)
	require.NoError(t, err)
	assert.Equal(t, int64(16), res.Movements[0].QuantityBefore)
	assert.Equal(t, int64(40), f.stock(t, f.main.ID))

	t.Run("insufficient stock leaves quantity untouched", func(t *testing.T) {
		_, err := f.record(t, "SALE", 41)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, int64(40), f.stock(t, f.main.ID))
	})

	t.Run("outbound from an empty location", func(t *testing.T) {
		_, err := f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, RecordMovementRequest{
			WarehouseID: &f.backup.ID,
			ProductID:   f.product.ID,
			Type:        "SALE",
			Quantity:    1,
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("non positive quantity", func(t *testing.T) {
		_, err := f.record(t, "PURCHASE", 0)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, RecordMovementRequest{
			ProductID: uuid.New(),
			Type:      "PURCHASE",
			Quantity:  1,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	history, err := f.svc.ListMovements(t.Context(), f.tenantID, MovementListFilter{ProductID: &f.product.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), history.Total)
}

func TestInventoryService_LowStockAlerts(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := t.Context()

	_, err := f.record(t, "PURCHASE", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.EventTypeStockMoved}, f.publisher.types())
	f.publisher.reset()

	_, err = f.record(t, "SALE", 6)
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.EventTypeStockMoved, inventory.EventTypeLowStockDetected}, f.publisher.types())

	detected := f.publisher.events[1].(*inventory.LowStockDetectedEvent)
	assert.Equal(t, "MUG-1", detected.SKU)
	assert.Equal(t, "Main", detected.WarehouseName)
	assert.Equal(t, int64(4), detected.Quantity)
	assert.Equal(t, 5, detected.Threshold)
	f.publisher.reset()

	// still low: the existing alert is refreshed, not duplicated
	_, err = f.record(t, "SALE", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.EventTypeStockMoved}, f.publisher.types())

	count, err := f.svc.OpenAlertCount(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	alerts, err := f.svc.ListAlerts(ctx, f.tenantID, AlertListFilter{Status: "OPEN"})
	require.NoError(t, err)
	require.Len(t, alerts.Items, 1)
	assert.Equal(t, int64(3), alerts.Items[0].Quantity)
	assert.Equal(t, "Mug", alerts.Items[0].ProductName)

	acked, err := f.svc.AcknowledgeAlert(ctx, f.tenantID, f.actorID, alerts.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ACKNOWLEDGED", acked.Status)

	_, err = f.svc.AcknowledgeAlert(ctx, f.tenantID, f.actorID, alerts.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	f.publisher.reset()

	_, err = f.record(t, "PURCHASE", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{inventory.EventTypeStockMoved, inventory.EventTypeStockReplenished}, f.publisher.types())

	count, err = f.svc.OpenAlertCount(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInventoryService_IdempotentReplay(t *testing.T) {
	f := newInventoryFixture(t)
	req := RecordMovementRequest{
		ProductID:      f.product.ID,
		Type:           "PURCHASE",
		Quantity:       7,
		IdempotencyKey: "po-1001",
	}

	first, err := f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assert.Equal(t, int64(7), f.stock(t, f.main.ID))
}

func TestInventoryService_Transfer(t *testing.T) {
	f := newInventoryFixture(t)
	_, err := f.record(t, "PURCHASE", 30)
	require.NoError(t, err)

	req := TransferRequest{
		FromWarehouseID: f.main.ID,
		ToWarehouseID:   f.backup.ID,
		ProductID:       f.product.ID,
		Quantity:        12,
		IdempotencyKey:  "tr-1",
	}
	res, err := f.svc.Transfer(t.Context(), f.tenantID, f.actorID, req)
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "TRANSFER_OUT", res.Movements[0].Type)
	assert.Equal(t, "TRANSFER_IN", res.Movements[1].Type)
	require.NotNil(t, res.Movements[0].TransferID)
	assert.Equal(t, *res.Movements[0].TransferID, *res.Movements[1].TransferID)
	assert.Equal(t, int64(18), f.stock(t, f.main.ID))
	assert.Equal(t, int64(12), f.stock(t, f.backup.ID))

	t.Run("replay returns both legs", func(t *testing.T) {
		again, err := f.svc.Transfer(t.Context(), f.tenantID, f.actorID, req)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Len(t, again.Movements, 2)
		assert.Equal(t, int64(18), f.stock(t, f.main.ID))
	})

	t.Run("same warehouse", func(t *testing.T) {
		_, err := f.svc.Transfer(t.Context(), f.tenantID, f.actorID, TransferRequest{
			FromWarehouseID: f.main.ID, ToWarehouseID: f.main.ID, ProductID: f.product.ID, Quantity: 1,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("short source rolls back both legs", func(t *testing.T) {
		_, err := f.svc.Transfer(t.Context(), f.tenantID, f.actorID, TransferRequest{
			FromWarehouseID: f.backup.ID, ToWarehouseID: f.main.ID, ProductID: f.product.ID, Quantity: 50,
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, int64(18), f.stock(t, f.main.ID))
		assert.Equal(t, int64(12), f.stock(t, f.backup.ID))
	})

	t.Run("record movement routes TRANSFER", func(t *testing.T) {
		res, err := f.svc.RecordMovement(t.Context(), f.tenantID, f.actorID, RecordMovementRequest{
			DestinationWarehouseID: &f.backup.ID,
			ProductID:              f.product.ID,
			Type:                   "TRANSFER",
			Quantity:               3,
		})
		require.NoError(t, err)
		assert.Len(t, res.Movements, 2)
		assert.Equal(t, int64(15), f.stock(t, f.backup.ID))
	})

	t.Run("transfer without destination", func(t *testing.T) {
		_, err := f.record(t, "TRANSFER", 1)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestInventoryService_RetriesVersionConflicts(t *testing.T) {
	f := newInventoryFixture(t)
	_, err := f.record(t, "PURCHASE", 10)
	require.NoError(t, err)

	f.items.calls = 0
	f.items.failures = 2
	_, err = f.record(t, "SALE", 4)
	require.NoError(t, err)
	assert.Equal(t, 3, f.items.calls)
	assert.Equal(t, int64(6), f.stock(t, f.main.ID))

	f.items.calls = 0
	f.items.failures = maxApplyAttempts
	_, err = f.record(t, "SALE", 1)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, int64(6), f.stock(t, f.main.ID))
}

func TestInventoryService_Forecast(t *testing.T) {
	f := newInventoryFixture(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	_, err := f.record(t, "PURCHASE", 100)
	require.NoError(t, err)
	_, err = f.record(t, "SALE", 30)
	require.NoError(t, err)

	forecast, err := f.svc.Forecast(t.Context(), f.tenantID, f.product.ID, ForecastRequest{LookbackDays: 30, HorizonDays: 14})
	require.NoError(t, err)
	assert.Equal(t, int64(70), forecast.OnHand)
	assert.Equal(t, int64(30), forecast.OutboundQuantity)
	assert.Equal(t, int64(14), forecast.ProjectedDemand)
	require.NotNil(t, forecast.DaysUntilStockout)
	assert.Equal(t, 70, *forecast.DaysUntilStockout)
	assert.Equal(t, int64(0), forecast.SuggestedReorder)
	assert.Equal(t, 5, forecast.Threshold)
}
