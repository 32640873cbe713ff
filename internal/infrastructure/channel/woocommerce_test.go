package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wooCreds(url string) integration.Credentials {
	return integration.Credentials{
		integration.CredStoreURL:       url,
		integration.CredConsumerKey:    "ck_test",
		integration.CredConsumerSecret: "cs_test",
	}
}

// fakeWoo knows one existing product, SKU-1 with id 11
type fakeWoo struct {
	lastBatch wooBatchRequest
}

func (f *fakeWoo) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			writeJSON(w, http.StatusUnauthorized, wooError{Code: "woocommerce_rest_cannot_view", Message: "Sorry"})
			return
		}
		var found []wooProduct
		for _, sku := range strings.Split(r.URL.Query().Get("sku"), ",") {
			if sku == "SKU-1" {
				found = append(found, wooProduct{ID: 11, SKU: "SKU-1"})
			}
		}
		writeJSON(w, http.StatusOK, found)
	})
	mux.HandleFunc("POST /wp-json/wc/v3/products/batch", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastBatch))
		var resp wooBatchResponse
		for _, p := range f.lastBatch.Create {
			item := wooBatchItem{ID: 99, SKU: p.SKU}
			if p.SKU == "BAD" {
				item.Error = &struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}{Code: "product_invalid_sku", Message: "Invalid or duplicated SKU."}
			}
			resp.Create = append(resp.Create, item)
		}
		for _, p := range f.lastBatch.Update {
			resp.Update = append(resp.Update, wooBatchItem{ID: p.ID, SKU: p.SKU})
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("GET /wp-json/wc/v3/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-01-02T00:00:00Z", r.URL.Query().Get("after"))
		if r.URL.Query().Get("page") != "1" {
			writeJSON(w, http.StatusOK, []wooOrder{})
			return
		}
		paid := "2026-01-03T10:00:00"
		writeJSON(w, http.StatusOK, []wooOrder{
			{
				ID: 501, Number: "501", Status: "processing", Currency: "usd",
				Total: "25.00", ShippingTotal: "5.00",
				DateCreatedGMT: "2026-01-03T09:00:00", DatePaidGMT: &paid,
				Billing:   wooAddress{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Phone: "+15550001"},
				Shipping:  wooAddress{Address1: "1 Main St", City: "Austin", State: "TX", Postcode: "73301", Country: "US"},
				LineItems: []wooLineItem{{SKU: "SKU-1", Name: "Mug", Quantity: 2, Price: json.Number("10")}},
			},
			{ID: 502, Number: "502", Status: "cancelled", Currency: "USD", Total: "9.00"},
			{ID: 503, Number: "503", Status: "pending", Currency: "USD", Total: "not-a-number"},
		})
	})
	return mux
}

func TestWooCommerceAdapter_PushProducts(t *testing.T) {
	fake := &fakeWoo{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	a := NewWooCommerceAdapter(5*time.Second, zap.NewNop())

	result, err := a.PushProducts(t.Context(), wooCreds(srv.URL), []integration.ChannelProduct{
		{SKU: "SKU-1", Name: "Mug", Price: decimal.RequireFromString("10"), Quantity: 4, Active: true},
		{SKU: "SKU-2", Name: "Cup", Price: decimal.RequireFromString("7.5"), Quantity: 0, ImageURL: "https://cdn/cup.png"},
		{SKU: "BAD", Name: "Broken", Price: decimal.RequireFromString("1")},
	})
	require.NoError(t, err)

	require.Len(t, fake.lastBatch.Update, 1)
	assert.Equal(t, int64(11), fake.lastBatch.Update[0].ID)
	assert.Equal(t, "publish", fake.lastBatch.Update[0].Status)
	require.Len(t, fake.lastBatch.Create, 2)
	assert.Equal(t, "7.50", fake.lastBatch.Create[0].RegularPrice)
	assert.Equal(t, "draft", fake.lastBatch.Create[0].Status)
	require.Len(t, fake.lastBatch.Create[0].Images, 1)

	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "BAD", result.FailedItems[0].Reference)
}

func TestWooCommerceAdapter_PushStock(t *testing.T) {
	fake := &fakeWoo{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	a := NewWooCommerceAdapter(5*time.Second, zap.NewNop())

	result, err := a.PushStock(t.Context(), wooCreds(srv.URL), []integration.StockLevel{
		{SKU: "SKU-1", Quantity: 7},
		{SKU: "MISSING", Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, fake.lastBatch.Update, 1)
	require.NotNil(t, fake.lastBatch.Update[0].StockQuantity)
	assert.Equal(t, int64(7), *fake.lastBatch.Update[0].StockQuantity)
	assert.True(t, fake.lastBatch.Update[0].ManageStock)
	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	assert.Equal(t, "MISSING", result.FailedItems[0].Reference)
}

func TestWooCommerceAdapter_PullOrders(t *testing.T) {
	srv := httptest.NewServer((&fakeWoo{}).handler(t))
	defer srv.Close()
	a := NewWooCommerceAdapter(5*time.Second, zap.NewNop())

	orders, err := a.PullOrders(t.Context(), wooCreds(srv.URL), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "501", o.ExternalID)
	assert.Equal(t, "USD", o.Currency)
	assert.True(t, o.Paid)
	assert.Equal(t, "ana@example.com", o.CustomerEmail)
	assert.Equal(t, "Austin", o.ShippingAddress.City)
	assert.True(t, decimal.RequireFromString("5").Equal(o.ShippingTotal))
	require.Len(t, o.Lines, 1)
	assert.Equal(t, int64(2), o.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("10").Equal(o.Lines[0].UnitPrice))
	assert.Equal(t, time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC), o.CreatedAt)
}

func TestWooCommerceAdapter_Unauthorized(t *testing.T) {
	srv := httptest.NewServer((&fakeWoo{}).handler(t))
	defer srv.Close()
	a := NewWooCommerceAdapter(5*time.Second, zap.NewNop())

	creds := wooCreds(srv.URL)
	creds[integration.CredConsumerSecret] = "wrong"
	err := a.TestConnection(t.Context(), creds)
	assert.ErrorIs(t, err, integration.ErrPlatformUnauthorized)

	_, err = a.PushStock(t.Context(), creds, []integration.StockLevel{{SKU: "SKU-1", Quantity: 1}})
	assert.ErrorIs(t, err, integration.ErrPlatformUnauthorized)
}
