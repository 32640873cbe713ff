package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tradeapp "github.com/smartstore/backend/internal/application/trade"
	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/domain/trade"
	"github.com/smartstore/backend/internal/infrastructure/channel"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/persistence/persistencetest"
)

type fakeAdapter struct {
	platform integration.Platform
	products []integration.ChannelProduct
	levels   []integration.StockLevel
	orders   []integration.ChannelOrder
	since    []time.Time
	reject   map[string]bool
	err      error
}

func (a *fakeAdapter) Platform() integration.Platform { return a.platform }

func (a *fakeAdapter) TestConnection(context.Context, integration.Credentials) error {
	return a.err
}

func (a *fakeAdapter) PushProducts(_ context.Context, _ integration.Credentials, products []integration.ChannelProduct) (*integration.SyncResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.products = append(a.products, products...)
	result := integration.NewSyncResult(integration.SyncProducts)
	for _, p := range products {
		if a.reject[p.SKU] {
			result.Fail(p.SKU, errors.New("rejected"))
			continue
		}
		result.Succeed()
	}
	return result.Finish(), nil
}

func (a *fakeAdapter) PushStock(_ context.Context, _ integration.Credentials, levels []integration.StockLevel) (*integration.SyncResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.levels = append(a.levels, levels...)
	result := integration.NewSyncResult(integration.SyncStock)
	for range levels {
		result.Succeed()
	}
	return result.Finish(), nil
}

func (a *fakeAdapter) PullOrders(_ context.Context, _ integration.Credentials, since time.Time) ([]integration.ChannelOrder, error) {
	a.since = append(a.since, since)
	if a.err != nil {
		return nil, a.err
	}
	return a.orders, nil
}

type mockImporter struct {
	mock.Mock
}

func (m *mockImporter) Import(ctx context.Context, tenantID uuid.UUID, ext tradeapp.ExternalOrder) (*tradeapp.OrderResponse, bool, error) {
	args := m.Called(ctx, tenantID, ext)
	resp, _ := args.Get(0).(*tradeapp.OrderResponse)
	return resp, args.Bool(1), args.Error(2)
}

type fakeLinker struct{}

func (fakeLinker) PresignDownload(_ context.Context, key string) (string, time.Time, error) {
	return "https://s3.test/" + key + "?sig=get", time.Now().Add(time.Hour), nil
}

type integrationFixture struct {
	svc       *IntegrationService
	woo       *fakeAdapter
	meta      *fakeAdapter
	importer  *mockImporter
	products  *persistence.GormProductRepository
	inventory *persistence.GormInventoryItemRepository
	tenantID  uuid.UUID
}

func newIntegrationFixture(t *testing.T) *integrationFixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	f := &integrationFixture{
		woo:       &fakeAdapter{platform: integration.PlatformWooCommerce, reject: map[string]bool{}},
		meta:      &fakeAdapter{platform: integration.PlatformFacebook, reject: map[string]bool{}},
		importer:  &mockImporter{},
		products:  persistence.NewGormProductRepository(db),
		inventory: persistence.NewGormInventoryItemRepository(db),
		tenantID:  uuid.New(),
	}
	f.svc = NewIntegrationService(
		persistence.NewGormIntegrationRepository(db),
		channel.NewRegistry(f.woo, f.meta),
		f.products,
		f.inventory,
		f.importer,
		fakeLinker{},
		"https://dashboard.smartstore.test",
		zap.NewNop(),
	)
	return f
}

func wooRequest(name string) CreateIntegrationRequest {
	return CreateIntegrationRequest{
		Platform: "WOOCOMMERCE",
		Name:     name,
		Credentials: map[string]string{
			integration.CredStoreURL:       "https://shop.example.com",
			integration.CredConsumerKey:    "ck_0123456789",
			integration.CredConsumerSecret: "cs_abcdef123456",
		},
	}
}

func (f *integrationFixture) create(t *testing.T, req CreateIntegrationRequest) *IntegrationResponse {
	t.Helper()
	resp, err := f.svc.Create(t.Context(), f.tenantID, uuid.New(), req)
	require.NoError(t, err)
	return resp
}

func (f *integrationFixture) addProduct(t *testing.T, sku, price string, status catalog.ProductStatus, stock ...int64) *catalog.Product {
	t.Helper()
	ctx := t.Context()
	p, err := catalog.NewProduct(f.tenantID, sku, "Product "+sku, decimal.RequireFromString(price), "USD")
	require.NoError(t, err)
	require.NoError(t, p.SetStatus(status))
	require.NoError(t, f.products.Save(ctx, p))
	for _, qty := range stock {
		f.addStock(t, p.ID, nil, qty)
	}
	return p
}

func (f *integrationFixture) addStock(t *testing.T, productID uuid.UUID, variantID *uuid.UUID, qty int64) {
	t.Helper()
	item, err := inventory.NewInventoryItem(f.tenantID, uuid.New(), productID, variantID)
	require.NoError(t, err)
	item.Quantity = qty
	require.NoError(t, f.inventory.Create(t.Context(), item))
}

func TestIntegrationService_CRUD(t *testing.T) {
	f := newIntegrationFixture(t)
	ctx := t.Context()

	created := f.create(t, wooRequest("Main store"))
	assert.Equal(t, "ACTIVE", created.Status)
	assert.Equal(t, "https://shop.example.com", created.Credentials[integration.CredStoreURL])
	assert.Equal(t, "****3456", created.Credentials[integration.CredConsumerSecret])

	_, err := f.svc.Create(ctx, f.tenantID, uuid.New(), wooRequest("Main store"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	missing := wooRequest("Second store")
	delete(missing.Credentials, integration.CredConsumerKey)
	_, err = f.svc.Create(ctx, f.tenantID, uuid.New(), missing)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	inactive := false
	updated, err := f.svc.Update(ctx, f.tenantID, created.ID, UpdateIntegrationRequest{
		Name:        "Renamed store",
		Credentials: map[string]string{integration.CredConsumerSecret: "cs_rotated999999"},
		Active:      &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed store", updated.Name)
	assert.Equal(t, "INACTIVE", updated.Status)
	assert.Equal(t, "****9999", updated.Credentials[integration.CredConsumerSecret])

	_, err = f.svc.Sync(ctx, f.tenantID, created.ID, SyncRequest{Kind: "products"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	f.create(t, CreateIntegrationRequest{
		Platform:    "facebook",
		Name:        "Shop catalog",
		Credentials: map[string]string{integration.CredCatalogID: "cat_1", integration.CredAccessToken: "EAAB-token-value"},
	})
	page, err := f.svc.List(ctx, f.tenantID, IntegrationListFilter{Platform: "FACEBOOK"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Shop catalog", page.Items[0].Name)

	other, err := f.svc.List(ctx, uuid.New(), IntegrationListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	require.NoError(t, f.svc.Delete(ctx, f.tenantID, created.ID))
	_, err = f.svc.GetByID(ctx, f.tenantID, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIntegrationService_SyncProducts(t *testing.T) {
	f := newIntegrationFixture(t)
	ctx := t.Context()

	mug := f.addProduct(t, "MUG-1", "12.50", catalog.ProductStatusActive, 3, 4)
	mug.SetImage("tenants/mug.png")
	large, err := mug.AddVariant("MUG-1-L", "Large", nil, nil)
	require.NoError(t, err)
	largeID := large.ID
	xl, err := mug.AddVariant("MUG-1-XL", "XL", nil, &[]decimal.Decimal{decimal.RequireFromString("15")}[0])
	require.NoError(t, err)
	xlID := xl.ID
	require.NoError(t, f.products.Save(ctx, mug))
	f.addStock(t, mug.ID, &largeID, 2)
	f.addStock(t, mug.ID, &xlID, 1)
	f.addProduct(t, "CAP-1", "8", catalog.ProductStatusDraft)

	req := wooRequest("Main store")
	req.Settings = map[string]string{integration.SettingStorefrontURL: "https://shop.example.com/"}
	woo := f.create(t, req)

	f.woo.reject["CAP-1"] = true
	result, err := f.svc.Sync(ctx, f.tenantID, woo.ID, SyncRequest{Kind: "PRODUCTS"})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, 1, result.FailedCount)

	bySKU := map[string]integration.ChannelProduct{}
	for _, p := range f.woo.products {
		bySKU[p.SKU] = p
	}
	require.Len(t, bySKU, 4)
	assert.Equal(t, int64(7), bySKU["MUG-1"].Quantity)
	assert.True(t, bySKU["MUG-1"].Active)
	assert.Equal(t, "https://s3.test/tenants/mug.png?sig=get", bySKU["MUG-1"].ImageURL)
	assert.Equal(t, "https://shop.example.com/products/MUG-1", bySKU["MUG-1"].URL)
	assert.Equal(t, "Product MUG-1 - Large", bySKU["MUG-1-L"].Name)
	assert.Equal(t, int64(2), bySKU["MUG-1-L"].Quantity)
	assert.True(t, decimal.RequireFromString("12.50").Equal(bySKU["MUG-1-L"].Price))
	assert.True(t, decimal.RequireFromString("15").Equal(bySKU["MUG-1-XL"].Price))
	assert.False(t, bySKU["CAP-1"].Active)
	assert.Zero(t, bySKU["CAP-1"].Quantity)

	got, err := f.svc.GetByID(ctx, f.tenantID, woo.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSync)
	assert.Equal(t, integration.SyncStatusPartial, got.LastSync.Status)
	assert.NotNil(t, got.LastSyncedAt)
	assert.Equal(t, "ACTIVE", got.Status)
}

func TestIntegrationService_SyncStock(t *testing.T) {
	f := newIntegrationFixture(t)
	ctx := t.Context()

	f.addProduct(t, "MUG-1", "12", catalog.ProductStatusActive, 5, 6)
	f.addProduct(t, "CAP-1", "8", catalog.ProductStatusActive)
	woo := f.create(t, wooRequest("Main store"))

	result, err := f.svc.Sync(ctx, f.tenantID, woo.ID, SyncRequest{Kind: "stock"})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, result.Status)
	assert.ElementsMatch(t, []integration.StockLevel{
		{SKU: "MUG-1", Quantity: 11},
		{SKU: "CAP-1", Quantity: 0},
	}, f.woo.levels)

	fb := f.create(t, CreateIntegrationRequest{
		Platform:    "FACEBOOK",
		Name:        "Shop catalog",
		Credentials: map[string]string{integration.CredCatalogID: "cat_1", integration.CredAccessToken: "EAAB-token-value"},
	})
	_, err = f.svc.Sync(ctx, f.tenantID, fb.ID, SyncRequest{Kind: "STOCK"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.svc.Sync(ctx, f.tenantID, fb.ID, SyncRequest{Kind: "EVERYTHING"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func channelOrder(id string, created time.Time) integration.ChannelOrder {
	return integration.ChannelOrder{
		ExternalID:    id,
		Number:        "10" + id,
		CustomerEmail: "buyer@shop.io",
		FirstName:     "Bea",
		LastName:      "Buyer",
		ShippingAddress: partner.Address{
			Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		Currency:  "USD",
		Lines:     []integration.ChannelOrderLine{{SKU: "MUG-1", Quantity: 2, UnitPrice: decimal.RequireFromString("12")}},
		Total:     decimal.RequireFromString("24"),
		Paid:      true,
		CreatedAt: created,
	}
}

func hasExternalID(id string) any {
	return mock.MatchedBy(func(ext tradeapp.ExternalOrder) bool { return ext.ExternalID == id })
}

func TestIntegrationService_SyncOrders(t *testing.T) {
	f := newIntegrationFixture(t)
	ctx := t.Context()
	woo := f.create(t, wooRequest("Main store"))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.woo.orders = []integration.ChannelOrder{
		channelOrder("1", base),
		channelOrder("2", base.Add(time.Hour)),
		channelOrder("3", base.Add(2*time.Hour)),
	}
	f.importer.On("Import", mock.Anything, f.tenantID, hasExternalID("1")).
		Return(&tradeapp.OrderResponse{}, true, nil).Once()
	f.importer.On("Import", mock.Anything, f.tenantID, hasExternalID("2")).
		Return(&tradeapp.OrderResponse{}, false, nil).Once()
	f.importer.On("Import", mock.Anything, f.tenantID, hasExternalID("3")).
		Return(nil, false, shared.InvalidInput("Unknown SKU MUG-1")).Once()

	result, err := f.svc.Sync(ctx, f.tenantID, woo.ID, SyncRequest{Kind: "ORDERS"})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "3", result.FailedItems[0].Reference)
	f.importer.AssertExpectations(t)

	call := f.importer.Calls[0].Arguments.Get(2).(tradeapp.ExternalOrder)
	assert.Equal(t, trade.ChannelWooCommerce, call.Channel)
	assert.Equal(t, "Springfield", call.Address.City)
	assert.Equal(t, []tradeapp.ExternalLine{{SKU: "MUG-1", Quantity: 2}}, call.Lines)
	assert.True(t, call.Paid)
	assert.Contains(t, call.Notes, "#101")

	// the next pull starts after the newest order seen
	f.woo.orders = nil
	_, err = f.svc.Sync(ctx, f.tenantID, woo.ID, SyncRequest{Kind: "ORDERS"})
	require.NoError(t, err)
	require.Len(t, f.woo.since, 2)
	assert.True(t, f.woo.since[0].IsZero())
	assert.True(t, base.Add(2*time.Hour).Equal(f.woo.since[1]), "since %s", f.woo.since[1])
}

func TestIntegrationService_SyncOrdersAbortsOnLocalFailure(t *testing.T) {
	f := newIntegrationFixture(t)
	woo := f.create(t, wooRequest("Main store"))

	f.woo.orders = []integration.ChannelOrder{channelOrder("1", time.Now())}
	f.importer.On("Import", mock.Anything, f.tenantID, mock.Anything).
		Return(nil, false, fmt.Errorf("database is locked"))

	result, err := f.svc.Sync(t.Context(), f.tenantID, woo.ID, SyncRequest{Kind: "ORDERS"})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusFailed, result.Status)
	assert.Contains(t, result.Error, "database is locked")

	got, err := f.svc.GetByID(t.Context(), f.tenantID, woo.ID)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", got.Status)
	assert.Nil(t, got.LastSyncedAt)
}

func TestIntegrationService_PlatformFailureAndRecovery(t *testing.T) {
	f := newIntegrationFixture(t)
	ctx := t.Context()
	f.addProduct(t, "MUG-1", "12", catalog.ProductStatusActive, 1)
	fb := f.create(t, CreateIntegrationRequest{
		Platform:    "FACEBOOK",
		Name:        "Shop catalog",
		Credentials: map[string]string{integration.CredCatalogID: "cat_1", integration.CredAccessToken: "EAAB-token-value"},
	})

	f.meta.err = fmt.Errorf("%w: invalid OAuth token", integration.ErrPlatformUnauthorized)
	result, err := f.svc.Sync(ctx, f.tenantID, fb.ID, SyncRequest{Kind: "PRODUCTS"})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusFailed, result.Status)

	test, err := f.svc.TestConnection(ctx, f.tenantID, fb.ID)
	require.NoError(t, err)
	assert.False(t, test.Connected)
	assert.Contains(t, test.Error, "invalid OAuth token")

	got, err := f.svc.GetByID(ctx, f.tenantID, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", got.Status)
	assert.Contains(t, got.LastError, "invalid OAuth token")

	f.meta.err = nil
	test, err = f.svc.TestConnection(ctx, f.tenantID, fb.ID)
	require.NoError(t, err)
	assert.True(t, test.Connected)

	got, err = f.svc.GetByID(ctx, f.tenantID, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", got.Status)
	assert.Empty(t, got.LastError)
}
