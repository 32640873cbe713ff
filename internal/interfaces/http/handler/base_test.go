package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/domain/integration"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	paydomain "github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/interfaces/http/dto"
	"github.com/smartstore/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{name: "not found", err: shared.ErrNotFound, status: http.StatusNotFound, code: dto.ErrCodeNotFound, message: "Resource not found"},
		{name: "custom message kept", err: shared.NewDomainError(shared.CodeInvalidInput, "SKU is required"), status: http.StatusBadRequest, code: dto.ErrCodeInvalidInput, message: "SKU is required"},
		{name: "wrapped domain error", err: fmt.Errorf("saving order: %w", shared.ErrConcurrencyConflict), status: http.StatusConflict, code: dto.ErrCodeConcurrencyConflict},
		{name: "insufficient stock", err: shared.ErrInsufficientStock, status: http.StatusUnprocessableEntity, code: dto.ErrCodeInsufficientStock},
		{name: "provider down", err: fmt.Errorf("stripe: %w", paydomain.ErrProviderUnavailable), status: http.StatusServiceUnavailable, code: dto.ErrCodeServiceUnavailable},
		{name: "channel not configured", err: notifdomain.ErrChannelNotConfigured, status: http.StatusServiceUnavailable, code: dto.ErrCodeServiceUnavailable},
		{name: "provider rejected", err: notifdomain.ErrProviderRejected, status: http.StatusBadGateway, code: dto.ErrCodeProviderError},
		{name: "platform unauthorized", err: integration.ErrPlatformUnauthorized, status: http.StatusBadGateway, code: dto.ErrCodeProviderError},
		{name: "unknown error hidden", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, code: dto.ErrCodeInternal, message: "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := gin.New()
			engine.Use(middleware.RequestID())
			engine.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-123")
			engine.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-123", resp.Error.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/x", func(c *gin.Context) {
		h.HandleError(c, nil)
		if !c.Writer.Written() {
			c.Status(http.StatusTeapot)
		}
	})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestPage(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/x", func(c *gin.Context) {
		Page(h, c, &shared.Paginated[string]{Items: []string{"a", "b"}, Total: 5, Page: 1, PageSize: 2})
	})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, []any{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/things/:id", func(c *gin.Context) {
		if id, ok := h.pathID(c, "id", "thing"); ok {
			h.Success(c, id)
		}
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid thing ID format", decodeResponse(t, rec).Error.Message)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/6f1c3c1e-8b7a-4c55-9d1e-1f2a3b4c5d6e", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBaseHandler_PrincipalMissing(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.GET("/x", func(c *gin.Context) {
		if _, _, ok := h.principal(c); ok {
			c.Status(http.StatusOK)
		}
	})
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
