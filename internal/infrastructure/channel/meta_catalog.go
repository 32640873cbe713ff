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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

// Graph API caps items_batch requests at 5000 items
const metaBatchSize = 5000

// MetaCatalogAdapter pushes products to a Facebook/Instagram commerce catalog
// through the Graph API items_batch endpoint. Instagram Shopping reads the
// same catalog, so one adapter serves both platforms.
type MetaCatalogAdapter struct {
	platform   integration.Platform
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMetaCatalogAdapter creates an adapter for PlatformFacebook or PlatformInstagram
func NewMetaCatalogAdapter(platform integration.Platform, cfg config.WhatsAppConfig, logger *zap.Logger) *MetaCatalogAdapter {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = "https://graph.facebook.com"
	}
	version := cfg.APIVersion
	if version == "" {
		version = "v19.0"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MetaCatalogAdapter{
		platform:   platform,
		baseURL:    strings.TrimRight(graphURL, "/") + "/" + version,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Platform returns FACEBOOK or INSTAGRAM
func (a *MetaCatalogAdapter) Platform() integration.Platform {
	return a.platform
}

type metaCatalog struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int64  `json:"product_count"`
}

type metaBatchItem struct {
	Method string         `json:"method"`
	Data   map[string]any `json:"data"`
}

type metaBatchRequest struct {
	AccessToken string          `json:"access_token"`
	ItemType    string          `json:"item_type"`
	AllowUpsert bool            `json:"allow_upsert"`
	Requests    []metaBatchItem `json:"requests"`
}

type metaBatchResponse struct {
	Handles          []string `json:"handles"`
	ValidationStatus []struct {
		RetailerID string `json:"retailer_id"`
		Errors     []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"validation_status"`
}

type metaGraphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// TestConnection reads the catalog
func (a *MetaCatalogAdapter) TestConnection(ctx context.Context, creds integration.Credentials) error {
	var cat metaCatalog
	q := url.Values{
		"fields":       {"id,name,product_count"},
		"access_token": {creds.Get(integration.CredAccessToken)},
	}
	return a.call(ctx, http.MethodGet, "/"+url.PathEscape(creds.Get(integration.CredCatalogID))+"?"+q.Encode(), nil, &cat)
}

// PushProducts upserts catalog items keyed by SKU (retailer id)
func (a *MetaCatalogAdapter) PushProducts(ctx context.Context, creds integration.Credentials, products []integration.ChannelProduct) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.SyncProducts)
	path := "/" + url.PathEscape(creds.Get(integration.CredCatalogID)) + "/items_batch"

	for start := 0; start < len(products); start += metaBatchSize {
		chunk := products[start:min(start+metaBatchSize, len(products))]
		req := metaBatchRequest{
			AccessToken: creds.Get(integration.CredAccessToken),
			ItemType:    "PRODUCT_ITEM",
			AllowUpsert: true,
			Requests:    make([]metaBatchItem, 0, len(chunk)),
		}
		for _, p := range chunk {
			req.Requests = append(req.Requests, metaBatchItem{Method: "UPDATE", Data: toMetaItem(p)})
		}

		var resp metaBatchResponse
		if err := a.call(ctx, http.MethodPost, path, req, &resp); err != nil {
			return result.Abort(err), err
		}

		rejected := make(map[string]string, len(resp.ValidationStatus))
		for _, vs := range resp.ValidationStatus {
			if len(vs.Errors) > 0 {
				rejected[vs.RetailerID] = vs.Errors[0].Message
			}
		}
		for _, p := range chunk {
			if msg, ok := rejected[p.SKU]; ok {
				result.Fail(p.SKU, errors.New(msg))
				continue
			}
			result.Succeed()
		}
		a.logger.Debug("Pushed catalog batch",
			zap.String("platform", string(a.platform)),
			zap.Int("items", len(chunk)),
			zap.Strings("handles", resp.Handles))
	}
	return result.Finish(), nil
}

// PushStock is not supported; availability travels with PushProducts
func (a *MetaCatalogAdapter) PushStock(context.Context, integration.Credentials, []integration.StockLevel) (*integration.SyncResult, error) {
	return nil, integration.ErrOperationNotSupported
}

// PullOrders is not supported
func (a *MetaCatalogAdapter) PullOrders(context.Context, integration.Credentials, time.Time) ([]integration.ChannelOrder, error) {
	return nil, integration.ErrOperationNotSupported
}

func toMetaItem(p integration.ChannelProduct) map[string]any {
	availability := "out of stock"
	if p.Quantity > 0 {
		availability = "in stock"
	}
	item := map[string]any{
		"id":           p.SKU,
		"title":        p.Name,
		"description":  p.Description,
		"availability": availability,
		"condition":    "new",
		"price":        p.Price.StringFixed(2) + " " + strings.ToUpper(p.Currency),
		"inventory":    p.Quantity,
	}
	if p.Description == "" {
		item["description"] = p.Name
	}
	if p.ImageURL != "" {
		item["image_link"] = p.ImageURL
	}
	if p.URL != "" {
		item["link"] = p.URL
	}
	if !p.Active {
		item["visibility"] = "hidden"
	}
	return item
}

func (a *MetaCatalogAdapter) call(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("graph: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("graph: failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: graph: %v", integration.ErrPlatformRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("graph: failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var ge metaGraphError
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			msg = ge.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized || ge.Error.Code == 190 {
			return fmt.Errorf("%w: graph: %s", integration.ErrPlatformUnauthorized, msg)
		}
		return fmt.Errorf("%w: graph: %s", integration.ErrPlatformRequestFailed, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: graph: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return nil
}

var _ integration.Adapter = (*MetaCatalogAdapter)(nil)
