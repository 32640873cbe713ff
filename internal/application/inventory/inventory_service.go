package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// maxApplyAttempts bounds the optimistic-lock retries of a single movement
const maxApplyAttempts = 3

// InventoryService records stock movements and maintains low-stock alerts.
// Quantities only change through movements.
type InventoryService struct {
	itemRepo      inventory.InventoryItemRepository
	movementRepo  inventory.StockMovementRepository
	alertRepo     inventory.LowStockAlertRepository
	productRepo   catalog.ProductRepository
	warehouseRepo partner.WarehouseRepository
	orgRepo       identity.OrganizationRepository
	txManager     shared.TxManager
	publisher     shared.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	itemRepo inventory.InventoryItemRepository,
	movementRepo inventory.StockMovementRepository,
	alertRepo inventory.LowStockAlertRepository,
	productRepo catalog.ProductRepository,
	warehouseRepo partner.WarehouseRepository,
	orgRepo identity.OrganizationRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		itemRepo:      itemRepo,
		movementRepo:  movementRepo,
		alertRepo:     alertRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		orgRepo:       orgRepo,
		txManager:     txManager,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

// RecordMovement handles a movement submitted through the API
func (s *InventoryService) RecordMovement(ctx context.Context, tenantID, actorID uuid.UUID, req RecordMovementRequest) (*MovementResult, error) {
	movementType, err := inventory.ParseMovementType(req.Type)
	if err != nil {
		return nil, err
	}

	warehouseID, err := s.resolveWarehouse(ctx, tenantID, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	if movementType == inventory.MovementTransfer {
		if req.DestinationWarehouseID == nil {
			return nil, shared.InvalidInput("destination_warehouse_id is required for transfers")
		}
		return s.Transfer(ctx, tenantID, actorID, TransferRequest{
			FromWarehouseID: warehouseID,
			ToWarehouseID:   *req.DestinationWarehouseID,
			ProductID:       req.ProductID,
			VariantID:       req.VariantID,
			Quantity:        req.Quantity,
			Reason:          req.Reason,
			IdempotencyKey:  req.IdempotencyKey,
		})
	}

	return s.Move(ctx, tenantID, MovementInput{
		WarehouseID:    warehouseID,
		ProductID:      req.ProductID,
		VariantID:      req.VariantID,
		Type:           movementType,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		ReferenceType:  inventory.ReferenceManual,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      &actorID,
	})
}

// Move applies a single movement in its own transaction and publishes the
// resulting events after commit
func (s *InventoryService) Move(ctx context.Context, tenantID uuid.UUID, in MovementInput) (*MovementResult, error) {
	var (
		result *MovementResult
		events []shared.DomainEvent
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, events, err = s.Apply(ctx, tenantID, in)
		return err
	})
	if err != nil {
		if replay, ok := s.replayAfterRace(ctx, tenantID, in.IdempotencyKey, err); ok {
			return replay, nil
		}
		return nil, err
	}

	s.publish(ctx, events)
	return result, nil
}

// Apply applies a movement inside the caller's transaction. The returned
// events must be published by the caller once the transaction commits.
func (s *InventoryService) Apply(ctx context.Context, tenantID uuid.UUID, in MovementInput) (*MovementResult, []shared.DomainEvent, error) {
	if in.Type == inventory.MovementTransfer {
		return nil, nil, shared.InvalidInput("Use a transfer to move stock between warehouses")
	}
	if in.IdempotencyKey != "" {
		if replay, err := s.findReplay(ctx, tenantID, in.IdempotencyKey); err != nil || replay != nil {
			return replay, nil, err
		}
	}

	product, warehouse, err := s.loadLocation(ctx, tenantID, in.WarehouseID, in.ProductID, in.VariantID)
	if err != nil {
		return nil, nil, err
	}
	threshold, err := s.threshold(ctx, tenantID, product)
	if err != nil {
		return nil, nil, err
	}

	movement, events, err := s.applyLeg(ctx, tenantID, in, nil, product, warehouse, threshold)
	if err != nil {
		return nil, nil, err
	}

	return &MovementResult{Movements: []MovementResponse{ToMovementResponse(movement)}}, events, nil
}

// Transfer moves stock between two warehouses as a linked pair of movements
func (s *InventoryService) Transfer(ctx context.Context, tenantID, actorID uuid.UUID, req TransferRequest) (*MovementResult, error) {
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.InvalidInput("Source and destination warehouses must differ")
	}
	if req.Quantity <= 0 {
		return nil, shared.InvalidInput("Transfer quantity must be positive")
	}

	var (
		result *MovementResult
		events []shared.DomainEvent
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if req.IdempotencyKey != "" {
			replay, err := s.findReplay(ctx, tenantID, req.IdempotencyKey)
			if err != nil {
				return err
			}
			if replay != nil {
				result = replay
				return nil
			}
		}

		product, source, err := s.loadLocation(ctx, tenantID, req.FromWarehouseID, req.ProductID, req.VariantID)
		if err != nil {
			return err
		}
		destination, err := s.activeWarehouse(ctx, tenantID, req.ToWarehouseID)
		if err != nil {
			return err
		}
		threshold, err := s.threshold(ctx, tenantID, product)
		if err != nil {
			return err
		}

		transferID := uuid.New()
		outLeg, outEvents, err := s.applyLeg(ctx, tenantID, MovementInput{
			WarehouseID:    source.ID,
			ProductID:      req.ProductID,
			VariantID:      req.VariantID,
			Type:           inventory.MovementTransferOut,
			Quantity:       req.Quantity,
			Reason:         req.Reason,
			ReferenceType:  inventory.ReferenceTransfer,
			ReferenceID:    transferID.String(),
			IdempotencyKey: req.IdempotencyKey,
			CreatedBy:      &actorID,
		}, &transferID, product, source, threshold)
		if err != nil {
			return err
		}

		inLeg, inEvents, err := s.applyLeg(ctx, tenantID, MovementInput{
			WarehouseID:   destination.ID,
			ProductID:     req.ProductID,
			VariantID:     req.VariantID,
			Type:          inventory.MovementTransferIn,
			Quantity:      req.Quantity,
			Reason:        req.Reason,
			ReferenceType: inventory.ReferenceTransfer,
			ReferenceID:   transferID.String(),
			CreatedBy:     &actorID,
		}, &transferID, product, destination, threshold)
		if err != nil {
			return err
		}

		result = &MovementResult{Movements: []MovementResponse{ToMovementResponse(outLeg), ToMovementResponse(inLeg)}}
		events = append(outEvents, inEvents...)
		return nil
	})
	if err != nil {
		if replay, ok := s.replayAfterRace(ctx, tenantID, req.IdempotencyKey, err); ok {
			return replay, nil
		}
		return nil, err
	}

	if !result.Replayed {
		s.logger.Info("Stock transferred",
			zap.String("tenant_id", tenantID.String()),
			zap.String("product_id", req.ProductID.String()),
			zap.String("from", req.FromWarehouseID.String()),
			zap.String("to", req.ToWarehouseID.String()),
			zap.Int64("quantity", req.Quantity))
	}
	s.publish(ctx, events)
	return result, nil
}

// applyLeg updates one inventory item with optimistic locking, records the
// movement and evaluates the item's alert
func (s *InventoryService) applyLeg(
	ctx context.Context,
	tenantID uuid.UUID,
	in MovementInput,
	transferID *uuid.UUID,
	product *catalog.Product,
	warehouse *partner.Warehouse,
	threshold int,
) (*inventory.StockMovement, []shared.DomainEvent, error) {
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		item, err := s.loadItem(ctx, tenantID, in)
		if err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			return nil, nil, err
		}

		before, after, err := item.Apply(in.Type, in.Quantity, s.now())
		if err != nil {
			return nil, nil, err
		}

		if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				s.logger.Debug("Inventory item changed concurrently, retrying",
					zap.String("item_id", item.ID.String()),
					zap.Int("attempt", attempt))
				continue
			}
			return nil, nil, err
		}

		movement := inventory.NewStockMovement(item, in.Type, in.Quantity, before, after)
		movement.Reason = in.Reason
		movement.ReferenceType = in.ReferenceType
		movement.ReferenceID = in.ReferenceID
		movement.TransferID = transferID
		movement.CreatedBy = in.CreatedBy
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			movement.IdempotencyKey = &key
		}
		if err := s.movementRepo.Create(ctx, movement); err != nil {
			return nil, nil, err
		}

		events := []shared.DomainEvent{inventory.NewStockMovedEvent(movement)}
		alertEvents, err := s.evaluateAlert(ctx, item, threshold, product, warehouse)
		if err != nil {
			return nil, nil, err
		}
		return movement, append(events, alertEvents...), nil
	}

	s.logger.Warn("Giving up on inventory update after repeated conflicts",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", in.ProductID.String()),
		zap.String("warehouse_id", in.WarehouseID.String()))
	return nil, nil, shared.ErrConcurrencyConflict
}

// loadItem returns the item for the movement's location. Inbound movements
// create a missing item; outbound ones fail with insufficient stock.
func (s *InventoryService) loadItem(ctx context.Context, tenantID uuid.UUID, in MovementInput) (*inventory.InventoryItem, error) {
	item, err := s.itemRepo.FindByLocation(ctx, tenantID, in.WarehouseID, in.ProductID, in.VariantID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if in.Type.IsOutbound() {
		return nil, shared.ErrInsufficientStock
	}

	item, err = inventory.NewInventoryItem(tenantID, in.WarehouseID, in.ProductID, in.VariantID)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) evaluateAlert(
	ctx context.Context,
	item *inventory.InventoryItem,
	threshold int,
	product *catalog.Product,
	warehouse *partner.Warehouse,
) ([]shared.DomainEvent, error) {
	alert, err := s.alertRepo.FindUnresolvedByItem(ctx, item.TenantID, item.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		alert = nil
	}

	switch inventory.EvaluateStockLevel(item.Quantity, threshold, alert != nil) {
	case inventory.AlertActionOpen:
		alert = inventory.NewLowStockAlert(item, threshold)
		if err := s.alertRepo.Save(ctx, alert); err != nil {
			return nil, err
		}
		s.logger.Info("Low stock detected",
			zap.String("tenant_id", item.TenantID.String()),
			zap.String("sku", product.SKU),
			zap.String("warehouse", warehouse.Code),
			zap.Int64("quantity", item.Quantity),
			zap.Int("threshold", threshold))
		return []shared.DomainEvent{inventory.NewLowStockDetectedEvent(alert, product.Name, product.SKU, warehouse.Name)}, nil
	case inventory.AlertActionRefresh:
		alert.Refresh(item.Quantity)
		return nil, s.alertRepo.Save(ctx, alert)
	case inventory.AlertActionResolve:
		alert.Resolve()
		if err := s.alertRepo.Save(ctx, alert); err != nil {
			return nil, err
		}
		return []shared.DomainEvent{inventory.NewStockReplenishedEvent(alert, item.Quantity)}, nil
	default:
		return nil, nil
	}
}

func (s *InventoryService) loadLocation(ctx context.Context, tenantID, warehouseID, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Product, *partner.Warehouse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, nil, err
	}
	if variantID != nil && product.Variant(*variantID) == nil {
		return nil, nil, shared.NotFound("variant")
	}
	warehouse, err := s.activeWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	return product, warehouse, nil
}

func (s *InventoryService) activeWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID) (*partner.Warehouse, error) {
	warehouse, err := s.warehouseRepo.FindByID(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if !warehouse.IsActive() {
		return nil, shared.InvalidState("Warehouse " + warehouse.Code + " is inactive")
	}
	return warehouse, nil
}

func (s *InventoryService) resolveWarehouse(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) (uuid.UUID, error) {
	if warehouseID != nil {
		return *warehouseID, nil
	}
	warehouse, err := s.warehouseRepo.FindDefault(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, shared.InvalidInput("No default warehouse configured; warehouse_id is required")
		}
		return uuid.Nil, err
	}
	return warehouse.ID, nil
}

// DefaultWarehouse returns the tenant's default warehouse ID
func (s *InventoryService) DefaultWarehouse(ctx context.Context, tenantID uuid.UUID) (uuid.UUID, error) {
	return s.resolveWarehouse(ctx, tenantID, nil)
}

func (s *InventoryService) threshold(ctx context.Context, tenantID uuid.UUID, product *catalog.Product) (int, error) {
	orgDefault := identity.DefaultOrganizationSettings().LowStockThreshold
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return 0, err
		}
	} else {
		orgDefault = org.Settings.LowStockThreshold
	}
	return product.Threshold(orgDefault), nil
}

func (s *InventoryService) findReplay(ctx context.Context, tenantID uuid.UUID, key string) (*MovementResult, error) {
	existing, err := s.movementRepo.FindByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	result := &MovementResult{Replayed: true, Movements: make([]MovementResponse, len(existing))}
	for i := range existing {
		result.Movements[i] = ToMovementResponse(&existing[i])
	}
	return result, nil
}

// replayAfterRace resolves a conflict caused by a concurrent request with the
// same idempotency key by returning the winner's movements
func (s *InventoryService) replayAfterRace(ctx context.Context, tenantID uuid.UUID, key string, err error) (*MovementResult, bool) {
	if key == "" || !errors.Is(err, shared.ErrConcurrencyConflict) {
		return nil, false
	}
	replay, findErr := s.findReplay(ctx, tenantID, key)
	if findErr != nil || replay == nil {
		return nil, false
	}
	return replay, true
}

func (s *InventoryService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish inventory events", zap.Error(err))
	}
}

// ListStock lists stock levels
func (s *InventoryService) ListStock(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) (*shared.Paginated[StockResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.WarehouseID != nil {
		f = f.With("warehouse_id", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		f = f.With("product_id", *filter.ProductID)
	}
	if filter.OutOfStock {
		f = f.With("out_of_stock", true)
	}

	items, total, err := s.itemRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	out := make([]StockResponse, len(items))
	for i := range items {
		out[i] = ToStockResponse(&items[i])
	}
	result := shared.NewPaginated(out, total, f.Page, f.Limit())
	return &result, nil
}

// ListMovements lists the movement history, newest first
func (s *InventoryService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter MovementListFilter) (*shared.Paginated[MovementResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.WarehouseID != nil {
		f = f.With("warehouse_id", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		f = f.With("product_id", *filter.ProductID)
	}
	if filter.Type != "" {
		f = f.With("type", filter.Type)
	}
	if filter.ReferenceID != "" {
		f = f.With("reference_id", filter.ReferenceID)
	}

	movements, total, err := s.movementRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	result := shared.NewPaginated(out, total, f.Page, f.Limit())
	return &result, nil
}

// ListAlerts lists low-stock alerts with product names attached
func (s *InventoryService) ListAlerts(ctx context.Context, tenantID uuid.UUID, filter AlertListFilter) (*shared.Paginated[AlertResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.ProductID != nil {
		f = f.With("product_id", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		f = f.With("warehouse_id", *filter.WarehouseID)
	}

	alerts, total, err := s.alertRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(alerts))
	for i := range alerts {
		ids = append(ids, alerts[i].ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	out := make([]AlertResponse, len(alerts))
	for i := range alerts {
		out[i] = ToAlertResponse(&alerts[i])
		if p, ok := byID[alerts[i].ProductID]; ok {
			out[i].ProductName = p.Name
			out[i].SKU = p.SKU
		}
	}
	result := shared.NewPaginated(out, total, f.Page, f.Limit())
	return &result, nil
}

// AcknowledgeAlert marks an open alert as seen
func (s *InventoryService) AcknowledgeAlert(ctx context.Context, tenantID, actorID, alertID uuid.UUID) (*AlertResponse, error) {
	alert, err := s.alertRepo.FindByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Acknowledge(actorID); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// OpenAlertCount counts unresolved alerts
func (s *InventoryService) OpenAlertCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.alertRepo.CountOpen(ctx, tenantID)
}

// Forecast projects demand for a product from its recent sales
func (s *InventoryService) Forecast(ctx context.Context, tenantID, productID uuid.UUID, req ForecastRequest) (*inventory.Forecast, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = inventory.DefaultLookbackDays
	}
	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = inventory.DefaultHorizonDays
	}

	items, err := s.itemRepo.FindByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	var onHand int64
	for i := range items {
		onHand += items[i].Quantity
	}

	now := s.now()
	outbound, err := s.movementRepo.SumOutbound(ctx, tenantID, productID, now.AddDate(0, 0, -lookback))
	if err != nil {
		return nil, err
	}
	threshold, err := s.threshold(ctx, tenantID, product)
	if err != nil {
		return nil, err
	}

	forecast := inventory.ComputeForecast(productID, onHand, outbound, lookback, horizon, threshold, now)
	return &forecast, nil
}
