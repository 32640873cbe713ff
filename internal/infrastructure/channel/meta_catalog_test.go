package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

func newMetaServer(t *testing.T, got *metaBatchRequest) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v19.0/cat-1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "good" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"message": "Invalid OAuth access token.", "type": "OAuthException", "code": 190},
			})
			return
		}
		writeJSON(w, http.StatusOK, metaCatalog{ID: "cat-1", Name: "Shop"})
	})
	mux.HandleFunc("POST /v19.0/cat-1/items_batch", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		writeJSON(w, http.StatusOK, map[string]any{
			"handles": []string{"h1"},
			"validation_status": []map[string]any{
				{"retailer_id": "SKU-2", "errors": []map[string]any{{"message": "image_link is invalid"}}},
			},
		})
	})
	mux.HandleFunc("GET /v19.0/pn-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "Invalid OAuth access token.", "code": 190},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "pn-1", "display_phone_number": "+1 555 0100", "verified_name": "Shop"})
	})
	return httptest.NewServer(mux)
}

func metaConfig(url string) config.WhatsAppConfig {
	return config.WhatsAppConfig{GraphURL: url, APIVersion: "v19.0", Timeout: 5 * time.Second}
}

func TestMetaCatalogAdapter_PushProducts(t *testing.T) {
	var got metaBatchRequest
	srv := newMetaServer(t, &got)
	defer srv.Close()
	a := NewMetaCatalogAdapter(integration.PlatformInstagram, metaConfig(srv.URL), zap.NewNop())
	creds := integration.Credentials{integration.CredCatalogID: "cat-1", integration.CredAccessToken: "good"}

	result, err := a.PushProducts(t.Context(), creds, []integration.ChannelProduct{
		{SKU: "SKU-1", Name: "Mug", Price: decimal.RequireFromString("12.99"), Currency: "usd", Quantity: 3, URL: "https://shop/mug", Active: true},
		{SKU: "SKU-2", Name: "Cup", Price: decimal.RequireFromString("4"), Currency: "USD", ImageURL: "bad"},
	})
	require.NoError(t, err)

	assert.Equal(t, "PRODUCT_ITEM", got.ItemType)
	require.Len(t, got.Requests, 2)
	first := got.Requests[0].Data
	assert.Equal(t, "UPDATE", got.Requests[0].Method)
	assert.Equal(t, "SKU-1", first["id"])
	assert.Equal(t, "12.99 USD", first["price"])
	assert.Equal(t, "in stock", first["availability"])
	assert.Equal(t, "https://shop/mug", first["link"])
	assert.Equal(t, "out of stock", got.Requests[1].Data["availability"])
	assert.Equal(t, "hidden", got.Requests[1].Data["visibility"])

	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	require.Len(t, result.FailedItems, 1)
	assert.Equal(t, "SKU-2", result.FailedItems[0].Reference)
	assert.Equal(t, "image_link is invalid", result.FailedItems[0].Error)
}

func TestMetaCatalogAdapter_TestConnection(t *testing.T) {
	srv := newMetaServer(t, &metaBatchRequest{})
	defer srv.Close()
	a := NewMetaCatalogAdapter(integration.PlatformFacebook, metaConfig(srv.URL), zap.NewNop())

	assert.NoError(t, a.TestConnection(t.Context(), integration.Credentials{
		integration.CredCatalogID: "cat-1", integration.CredAccessToken: "good",
	}))
	err := a.TestConnection(t.Context(), integration.Credentials{
		integration.CredCatalogID: "cat-1", integration.CredAccessToken: "expired",
	})
	assert.ErrorIs(t, err, integration.ErrPlatformUnauthorized)

	_, err = a.PushStock(t.Context(), nil, nil)
	assert.ErrorIs(t, err, integration.ErrOperationNotSupported)
	_, err = a.PullOrders(t.Context(), nil, time.Time{})
	assert.ErrorIs(t, err, integration.ErrOperationNotSupported)
}

func TestWhatsAppAdapter_TestConnection(t *testing.T) {
	srv := newMetaServer(t, &metaBatchRequest{})
	defer srv.Close()
	a := NewWhatsAppAdapter(messaging.NewWhatsAppClient(metaConfig(srv.URL)))

	assert.NoError(t, a.TestConnection(t.Context(), integration.Credentials{
		integration.CredPhoneNumberID: "pn-1", integration.CredAccessToken: "good",
	}))
	err := a.TestConnection(t.Context(), integration.Credentials{
		integration.CredPhoneNumberID: "pn-1", integration.CredAccessToken: "bad",
	})
	assert.ErrorIs(t, err, integration.ErrPlatformUnauthorized)
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(&config.Config{}, zap.NewNop())

	for _, p := range []integration.Platform{
		integration.PlatformWooCommerce, integration.PlatformWhatsApp,
		integration.PlatformFacebook, integration.PlatformInstagram,
	} {
		a, err := r.Get(p)
		require.NoError(t, err)
		assert.Equal(t, p, a.Platform())
	}

	_, err := r.Get(integration.Platform("SHOPIFY"))
	assert.ErrorIs(t, err, integration.ErrPlatformNotSupported)
}
