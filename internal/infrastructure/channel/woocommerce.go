package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/partner"
)

const (
	wooAPIPrefix = "/wp-json/wc/v3"
	// WooCommerce caps batch requests at 100 objects
	wooBatchSize = 100
	wooPageSize  = 100
	// maxResponseSize bounds responses read from external platforms
	maxResponseSize = 10 << 20
)

// WooCommerceAdapter implements integration.Adapter for the WooCommerce REST API v3
type WooCommerceAdapter struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWooCommerceAdapter creates a WooCommerceAdapter
func NewWooCommerceAdapter(timeout time.Duration, logger *zap.Logger) *WooCommerceAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WooCommerceAdapter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Platform returns WOOCOMMERCE
func (a *WooCommerceAdapter) Platform() integration.Platform {
	return integration.PlatformWooCommerce
}

// TestConnection lists one product, which exercises the URL and the keys
func (a *WooCommerceAdapter) TestConnection(ctx context.Context, creds integration.Credentials) error {
	var products []wooProduct
	return a.call(ctx, creds, http.MethodGet, "/products?per_page=1", nil, &products)
}

// PushProducts creates or updates products matched by SKU
func (a *WooCommerceAdapter) PushProducts(ctx context.Context, creds integration.Credentials, products []integration.ChannelProduct) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.SyncProducts)

	for start := 0; start < len(products); start += wooBatchSize {
		chunk := products[start:min(start+wooBatchSize, len(products))]
		skus := make([]string, len(chunk))
		for i, p := range chunk {
			skus[i] = p.SKU
		}
		existing, err := a.findIDsBySKU(ctx, creds, skus)
		if err != nil {
			return result.Abort(err), err
		}

		var batch wooBatchRequest
		for _, p := range chunk {
			wp := toWooProduct(p)
			if id, ok := existing[p.SKU]; ok {
				wp.ID = id
				batch.Update = append(batch.Update, wp)
			} else {
				batch.Create = append(batch.Create, wp)
			}
		}

		var resp wooBatchResponse
		if err := a.call(ctx, creds, http.MethodPost, "/products/batch", batch, &resp); err != nil {
			return result.Abort(err), err
		}
		recordBatch(result, batch.Create, resp.Create)
		recordBatch(result, batch.Update, resp.Update)
	}

	return result.Finish(), nil
}

// PushStock sets stock quantities of products matched by SKU
func (a *WooCommerceAdapter) PushStock(ctx context.Context, creds integration.Credentials, levels []integration.StockLevel) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.SyncStock)

	for start := 0; start < len(levels); start += wooBatchSize {
		chunk := levels[start:min(start+wooBatchSize, len(levels))]
		skus := make([]string, len(chunk))
		for i, l := range chunk {
			skus[i] = l.SKU
		}
		existing, err := a.findIDsBySKU(ctx, creds, skus)
		if err != nil {
			return result.Abort(err), err
		}

		var batch wooBatchRequest
		for _, l := range chunk {
			id, ok := existing[l.SKU]
			if !ok {
				result.Fail(l.SKU, errors.New("product not found on store"))
				continue
			}
			qty := l.Quantity
			batch.Update = append(batch.Update, wooProduct{ID: id, SKU: l.SKU, ManageStock: true, StockQuantity: &qty})
		}
		if len(batch.Update) == 0 {
			continue
		}

		var resp wooBatchResponse
		if err := a.call(ctx, creds, http.MethodPost, "/products/batch", batch, &resp); err != nil {
			return result.Abort(err), err
		}
		recordBatch(result, batch.Update, resp.Update)
	}

	return result.Finish(), nil
}

// PullOrders returns orders created after since, oldest first
func (a *WooCommerceAdapter) PullOrders(ctx context.Context, creds integration.Credentials, since time.Time) ([]integration.ChannelOrder, error) {
	var out []integration.ChannelOrder
	for page := 1; ; page++ {
		q := url.Values{
			"per_page": {strconv.Itoa(wooPageSize)},
			"page":     {strconv.Itoa(page)},
			"orderby":  {"date"},
			"order":    {"asc"},
		}
		if !since.IsZero() {
			q.Set("after", since.UTC().Format(time.RFC3339))
		}

		var orders []wooOrder
		if err := a.call(ctx, creds, http.MethodGet, "/orders?"+q.Encode(), nil, &orders); err != nil {
			return nil, err
		}
		for i := range orders {
			if orders[i].Status == "cancelled" || orders[i].Status == "failed" || orders[i].Status == "trash" {
				continue
			}
			co, err := toChannelOrder(&orders[i])
			if err != nil {
				a.logger.Warn("Skipping malformed WooCommerce order",
					zap.Int64("woo_order_id", orders[i].ID),
					zap.Error(err))
				continue
			}
			out = append(out, co)
		}
		if len(orders) < wooPageSize {
			return out, nil
		}
	}
}

// findIDsBySKU maps SKUs to WooCommerce product ids
func (a *WooCommerceAdapter) findIDsBySKU(ctx context.Context, creds integration.Credentials, skus []string) (map[string]int64, error) {
	q := url.Values{
		"sku":      {strings.Join(skus, ",")},
		"per_page": {strconv.Itoa(wooPageSize)},
		"_fields":  {"id,sku"},
	}
	var found []wooProduct
	if err := a.call(ctx, creds, http.MethodGet, "/products?"+q.Encode(), nil, &found); err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(found))
	for _, p := range found {
		ids[p.SKU] = p.ID
	}
	return ids, nil
}

func (a *WooCommerceAdapter) call(ctx context.Context, creds integration.Credentials, method, path string, body, out any) error {
	base := strings.TrimRight(creds.Get(integration.CredStoreURL), "/")
	if base == "" {
		return fmt.Errorf("%w: store_url missing", integration.ErrPlatformRequestFailed)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("woocommerce: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+wooAPIPrefix+path, reqBody)
	if err != nil {
		return fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.Get(integration.CredConsumerKey), creds.Get(integration.CredConsumerSecret))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: woocommerce: %v", integration.ErrPlatformRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: woocommerce HTTP %d", integration.ErrPlatformUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		var we wooError
		if json.Unmarshal(respBody, &we) == nil && we.Message != "" {
			return fmt.Errorf("%w: woocommerce %s: %s", integration.ErrPlatformRequestFailed, we.Code, we.Message)
		}
		return fmt.Errorf("%w: woocommerce HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: woocommerce: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

// recordBatch matches batch results to the sent items by position
func recordBatch(result *integration.SyncResult, sent []wooProduct, got []wooBatchItem) {
	for i, p := range sent {
		switch {
		case i >= len(got):
			result.Fail(p.SKU, errors.New("missing from batch response"))
		case got[i].Error != nil:
			result.Fail(p.SKU, errors.New(got[i].Error.Message))
		default:
			result.Succeed()
		}
	}
}

func toWooProduct(p integration.ChannelProduct) wooProduct {
	qty := p.Quantity
	wp := wooProduct{
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		RegularPrice:  p.Price.StringFixed(2),
		Status:        "draft",
		ManageStock:   true,
		StockQuantity: &qty,
	}
	if p.Active {
		wp.Status = "publish"
	}
	if p.ImageURL != "" {
		wp.Images = []wooImage{{Src: p.ImageURL}}
	}
	return wp
}

func toChannelOrder(o *wooOrder) (integration.ChannelOrder, error) {
	total, err := decimal.NewFromString(o.Total)
	if err != nil {
		return integration.ChannelOrder{}, fmt.Errorf("total %q: %w", o.Total, err)
	}
	shipping := decimal.Zero
	if o.ShippingTotal != "" {
		if shipping, err = decimal.NewFromString(o.ShippingTotal); err != nil {
			return integration.ChannelOrder{}, fmt.Errorf("shipping_total %q: %w", o.ShippingTotal, err)
		}
	}
	created, err := time.Parse("2006-01-02T15:04:05", o.DateCreatedGMT)
	if err != nil {
		created = time.Now()
	}

	co := integration.ChannelOrder{
		ExternalID:    strconv.FormatInt(o.ID, 10),
		Number:        o.Number,
		CustomerEmail: o.Billing.Email,
		CustomerPhone: o.Billing.Phone,
		FirstName:     o.Billing.FirstName,
		LastName:      o.Billing.LastName,
		ShippingAddress: partner.Address{
			Line1:      o.Shipping.Address1,
			Line2:      o.Shipping.Address2,
			City:       o.Shipping.City,
			State:      o.Shipping.State,
			PostalCode: o.Shipping.Postcode,
			Country:    o.Shipping.Country,
		},
		Currency:      strings.ToUpper(o.Currency),
		ShippingTotal: shipping,
		Total:         total,
		Paid:          o.DatePaidGMT != nil && *o.DatePaidGMT != "",
		CreatedAt:     created.UTC(),
	}
	for _, li := range o.LineItems {
		price, err := decimal.NewFromString(li.Price.String())
		if err != nil {
			return integration.ChannelOrder{}, fmt.Errorf("line %s price: %w", li.SKU, err)
		}
		co.Lines = append(co.Lines, integration.ChannelOrderLine{
			SKU:       li.SKU,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: price,
		})
	}
	return co, nil
}

var _ integration.Adapter = (*WooCommerceAdapter)(nil)
