package integration

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tradeapp "github.com/smartstore/backend/internal/application/trade"
	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
)

// AdapterRegistry resolves channel adapters
type AdapterRegistry interface {
	Get(platform integration.Platform) (integration.Adapter, error)
}

// OrderImporter turns channel orders into local orders
type OrderImporter interface {
	Import(ctx context.Context, tenantID uuid.UUID, ext tradeapp.ExternalOrder) (*tradeapp.OrderResponse, bool, error)
}

// ImageLinker presigns product image downloads
type ImageLinker interface {
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

const catalogPageSize = 100

// IntegrationService manages channel integrations and runs syncs
type IntegrationService struct {
	repo          integration.IntegrationRepository
	registry      AdapterRegistry
	productRepo   catalog.ProductRepository
	inventoryRepo inventory.InventoryItemRepository
	orders        OrderImporter
	images        ImageLinker
	baseURL       string
	logger        *zap.Logger
}

// NewIntegrationService creates a new IntegrationService. images may be nil
// when no object storage is configured; baseURL is the default storefront.
func NewIntegrationService(
	repo integration.IntegrationRepository,
	registry AdapterRegistry,
	productRepo catalog.ProductRepository,
	inventoryRepo inventory.InventoryItemRepository,
	orders OrderImporter,
	images ImageLinker,
	baseURL string,
	logger *zap.Logger,
) *IntegrationService {
	return &IntegrationService{
		repo:          repo,
		registry:      registry,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		orders:        orders,
		images:        images,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// Create connects a platform for a tenant
func (s *IntegrationService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateIntegrationRequest) (*IntegrationResponse, error) {
	platform, err := integration.ParsePlatform(req.Platform)
	if err != nil {
		return nil, err
	}
	i, err := integration.NewIntegration(tenantID, platform, req.Name, integration.Credentials(req.Credentials), req.Settings)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByName(ctx, tenantID, platform, i.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.AlreadyExists("Integration already exists: " + i.Name)
	}
	i.SetCreatedBy(actorID)
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info("Integration created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("integration_id", i.ID.String()),
		zap.String("platform", string(platform)))

	response := ToIntegrationResponse(i)
	return &response, nil
}

// GetByID retrieves an integration
func (s *IntegrationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*IntegrationResponse, error) {
	i, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToIntegrationResponse(i)
	return &response, nil
}

// List retrieves a page of integrations
func (s *IntegrationService) List(ctx context.Context, tenantID uuid.UUID, filter IntegrationListFilter) (*shared.Paginated[IntegrationResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Platform != "" {
		f = f.With("platform", filter.Platform)
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}

	is, total, err := s.repo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]IntegrationResponse, len(is))
	for idx := range is {
		items[idx] = ToIntegrationResponse(&is[idx])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update renames, re-keys or toggles an integration
func (s *IntegrationService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateIntegrationRequest) (*IntegrationResponse, error) {
	i, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name != "" && name != i.Name {
		exists, err := s.repo.ExistsByName(ctx, tenantID, i.Platform, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.AlreadyExists("Integration already exists: " + name)
		}
	}
	var creds integration.Credentials
	if req.Credentials != nil {
		creds = integration.Credentials(req.Credentials)
	}
	if err := i.Update(name, creds, req.Settings); err != nil {
		return nil, err
	}
	if req.Active != nil {
		i.SetActive(*req.Active)
	}
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info("Integration updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("integration_id", id.String()),
		zap.String("status", string(i.Status)))

	response := ToIntegrationResponse(i)
	return &response, nil
}

// Delete removes an integration
func (s *IntegrationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Integration deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("integration_id", id.String()))
	return nil
}

// TestConnection checks the stored credentials against the platform. A
// failure is an outcome, not an error; an active integration records it.
func (s *IntegrationService) TestConnection(ctx context.Context, tenantID, id uuid.UUID) (*ConnectionTestResponse, error) {
	i, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(i.Platform)
	if err != nil {
		return nil, shared.InvalidState(err.Error())
	}

	testErr := adapter.TestConnection(ctx, i.Credentials)
	switch {
	case testErr != nil && i.IsActive():
		i.RecordError(testErr)
	case testErr == nil && i.Status == integration.StatusError:
		i.SetActive(true)
	default:
		return connectionResult(testErr), nil
	}
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info("Integration connection tested",
		zap.String("integration_id", i.ID.String()),
		zap.String("platform", string(i.Platform)),
		zap.Bool("connected", testErr == nil))
	return connectionResult(testErr), nil
}

func connectionResult(err error) *ConnectionTestResponse {
	if err != nil {
		return &ConnectionTestResponse{Connected: false, Error: err.Error()}
	}
	return &ConnectionTestResponse{Connected: true}
}

// Sync runs one sync of the given kind and records its result. Platform
// failures end up in the result; only local failures are returned as errors.
func (s *IntegrationService) Sync(ctx context.Context, tenantID, id uuid.UUID, req SyncRequest) (*integration.SyncResult, error) {
	kind, err := integration.ParseSyncKind(req.Kind)
	if err != nil {
		return nil, err
	}
	i, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !i.IsActive() {
		return nil, shared.InvalidState("Integration is inactive")
	}
	if !i.Platform.Supports(kind) {
		return nil, shared.InvalidInput(string(i.Platform) + " does not support " + string(kind) + " sync")
	}
	adapter, err := s.registry.Get(i.Platform)
	if err != nil {
		return nil, shared.InvalidState(err.Error())
	}

	var result *integration.SyncResult
	switch kind {
	case integration.SyncProducts:
		result, err = s.syncProducts(ctx, i, adapter)
	case integration.SyncStock:
		result, err = s.syncStock(ctx, i, adapter)
	case integration.SyncOrders:
		result, err = s.syncOrders(ctx, i, adapter)
	}
	if err != nil {
		return nil, err
	}

	i.RecordSync(result)
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	s.logger.Info("Integration synced",
		zap.String("tenant_id", tenantID.String()),
		zap.String("integration_id", i.ID.String()),
		zap.String("platform", string(i.Platform)),
		zap.String("kind", string(kind)),
		zap.String("status", string(result.Status)),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// aborted turns a platform error into a failed result
func aborted(kind integration.SyncKind, result *integration.SyncResult, err error) *integration.SyncResult {
	if result == nil {
		result = integration.NewSyncResult(kind)
	}
	if result.Status != integration.SyncStatusFailed {
		result.Abort(err)
	}
	return result
}

func (s *IntegrationService) syncProducts(ctx context.Context, i *integration.Integration, adapter integration.Adapter) (*integration.SyncResult, error) {
	var items []integration.ChannelProduct
	err := s.eachProduct(ctx, i.TenantID, func(p *catalog.Product, stock stockByVariant) error {
		items = append(items, s.channelProducts(ctx, i, p, stock)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return integration.NewSyncResult(integration.SyncProducts).Finish(), nil
	}

	result, err := adapter.PushProducts(ctx, i.Credentials, items)
	if err != nil {
		return aborted(integration.SyncProducts, result, err), nil
	}
	return result, nil
}

func (s *IntegrationService) syncStock(ctx context.Context, i *integration.Integration, adapter integration.Adapter) (*integration.SyncResult, error) {
	var levels []integration.StockLevel
	err := s.eachProduct(ctx, i.TenantID, func(p *catalog.Product, stock stockByVariant) error {
		levels = append(levels, integration.StockLevel{SKU: p.SKU, Quantity: stock[uuid.Nil]})
		for _, v := range p.Variants {
			levels = append(levels, integration.StockLevel{SKU: v.SKU, Quantity: stock[v.ID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return integration.NewSyncResult(integration.SyncStock).Finish(), nil
	}

	result, err := adapter.PushStock(ctx, i.Credentials, levels)
	if err != nil {
		return aborted(integration.SyncStock, result, err), nil
	}
	return result, nil
}

// syncOrders imports orders created after the cursor. Orders imported before
// count as successes; orders the shop cannot take (unknown SKU, no stock)
// are reported per order and not retried.
func (s *IntegrationService) syncOrders(ctx context.Context, i *integration.Integration, adapter integration.Adapter) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.SyncOrders)
	orders, err := adapter.PullOrders(ctx, i.Credentials, i.OrdersCursor())
	if err != nil {
		return aborted(integration.SyncOrders, result, err), nil
	}

	channel := orderChannel(i.Platform)
	for _, co := range orders {
		_, created, err := s.orders.Import(ctx, i.TenantID, toExternalOrder(channel, co))
		if err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				return aborted(integration.SyncOrders, result, err), nil
			}
			result.Fail(co.ExternalID, err)
		} else {
			result.Succeed()
			if created {
				s.logger.Debug("Imported channel order",
					zap.String("integration_id", i.ID.String()),
					zap.String("external_id", co.ExternalID))
			}
		}
		i.AdvanceOrdersCursor(co.CreatedAt)
	}
	return result.Finish(), nil
}

// stockByVariant is on-hand quantity across warehouses; uuid.Nil keys the
// product itself
type stockByVariant map[uuid.UUID]int64

// eachProduct walks the tenant's catalog page by page with stock totals
func (s *IntegrationService) eachProduct(ctx context.Context, tenantID uuid.UUID, fn func(*catalog.Product, stockByVariant) error) error {
	f := shared.DefaultFilter()
	f.PageSize = catalogPageSize
	f.OrderBy = "created_at"
	f.OrderDir = "asc"
	for {
		products, total, err := s.productRepo.FindAll(ctx, tenantID, f)
		if err != nil {
			return err
		}
		for idx := range products {
			p := &products[idx]
			items, err := s.inventoryRepo.FindByProduct(ctx, tenantID, p.ID)
			if err != nil {
				return err
			}
			stock := stockByVariant{}
			for _, item := range items {
				key := uuid.Nil
				if item.VariantID != nil {
					key = *item.VariantID
				}
				stock[key] += item.Quantity
			}
			if err := fn(p, stock); err != nil {
				return err
			}
		}
		if len(products) == 0 || int64(f.Page*f.Limit()) >= total {
			return nil
		}
		f.Page++
	}
}

func (s *IntegrationService) channelProducts(ctx context.Context, i *integration.Integration, p *catalog.Product, stock stockByVariant) []integration.ChannelProduct {
	imageURL := ""
	if p.ImageKey != "" && s.images != nil {
		if u, _, err := s.images.PresignDownload(ctx, p.ImageKey); err == nil {
			imageURL = u
		} else {
			s.logger.Warn("Failed to presign product image", zap.String("product_id", p.ID.String()), zap.Error(err))
		}
	}
	storefront := i.Settings[integration.SettingStorefrontURL]
	if storefront == "" {
		storefront = s.baseURL
	}

	base := integration.ChannelProduct{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Quantity:    stock[uuid.Nil],
		ImageURL:    imageURL,
		URL:         productURL(storefront, p.SKU),
		Active:      p.IsSellable(),
	}
	out := []integration.ChannelProduct{base}
	for _, v := range p.Variants {
		item := base
		item.SKU = v.SKU
		item.Name = p.Name + " - " + v.Name
		item.Quantity = stock[v.ID]
		item.URL = productURL(storefront, v.SKU)
		if v.Price != nil {
			item.Price = *v.Price
		}
		out = append(out, item)
	}
	return out
}

func productURL(storefront, sku string) string {
	if storefront == "" {
		return ""
	}
	return strings.TrimRight(storefront, "/") + "/products/" + url.PathEscape(sku)
}

func orderChannel(p integration.Platform) trade.Channel {
	switch p {
	case integration.PlatformWooCommerce:
		return trade.ChannelWooCommerce
	case integration.PlatformWhatsApp:
		return trade.ChannelWhatsApp
	default:
		return trade.ChannelSocial
	}
}

func toExternalOrder(channel trade.Channel, co integration.ChannelOrder) tradeapp.ExternalOrder {
	lines := make([]tradeapp.ExternalLine, len(co.Lines))
	for idx, l := range co.Lines {
		lines[idx] = tradeapp.ExternalLine{SKU: l.SKU, Quantity: l.Quantity}
	}
	notes := ""
	if co.Number != "" {
		notes = "Channel order #" + co.Number
		if !co.Total.IsZero() {
			notes += ", total " + co.Total.StringFixed(2) + " " + co.Currency
		}
	}
	return tradeapp.ExternalOrder{
		Channel:    channel,
		ExternalID: co.ExternalID,
		Email:      co.CustomerEmail,
		Phone:      co.CustomerPhone,
		FirstName:  co.FirstName,
		LastName:   co.LastName,
		Address: tradeapp.ShippingAddress{
			Line1:      co.ShippingAddress.Line1,
			Line2:      co.ShippingAddress.Line2,
			City:       co.ShippingAddress.City,
			State:      co.ShippingAddress.State,
			PostalCode: co.ShippingAddress.PostalCode,
			Country:    co.ShippingAddress.Country,
		},
		Lines: lines,
		Paid:  co.Paid,
		Notes: notes,
	}
}
