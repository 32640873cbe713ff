package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identityapp "github.com/smartstore/backend/internal/application/identity"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/auth"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAPIKeys struct {
	mock.Mock
}

func (m *mockAPIKeys) Authenticate(ctx context.Context, raw string) (*identityapp.APIKeyPrincipal, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityapp.APIKeyPrincipal), args.Error(1)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "smartstore-test",
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Email:       "owner@shop.io",
		Role:        "OWNER",
		Permissions: []string{"product:read", "product:create"},
	}
	pair, err := jwtService.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func newAuthRouter(cfg JWTMiddlewareConfig, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(cfg))
	router.GET("/api/v1/test", handler)
	router.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService)

	router := newAuthRouter(JWTMiddlewareConfig{JWTService: jwtService}, func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), GetJWTUserID(c))
		assert.Equal(t, input.TenantID.String(), GetJWTTenantID(c))
		assert.Empty(t, GetAPIKeyID(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: "ERR_TOKEN_INVALID"},
		{name: "wrong scheme", header: "Basic abc", code: "ERR_TOKEN_INVALID"},
		{name: "garbage token", header: "Bearer not-a-jwt", code: "ERR_TOKEN_INVALID"},
		{name: "refresh token as access", header: "Bearer " + pair.RefreshToken, code: "ERR_TOKEN_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter(JWTMiddlewareConfig{JWTService: jwtService}, func(c *gin.Context) {
				t.Fatal("handler must not run")
			})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newAuthRouter(JWTMiddlewareConfig{
		JWTService: newTestJWTService(),
		SkipPaths:  []string{"/api/v1/auth/login"},
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_BlacklistedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(t, jwtService)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(t.Context(), claims.ID, time.Minute))

	router := newAuthRouter(JWTMiddlewareConfig{JWTService: jwtService, TokenBlacklist: blacklist}, func(c *gin.Context) {
		t.Fatal("handler must not run")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR_TOKEN_REVOKED", errorCode(t, rec))
}

func TestJWTAuthMiddleware_APIKey(t *testing.T) {
	principal := &identityapp.APIKeyPrincipal{
		KeyID:       uuid.New(),
		TenantID:    uuid.New(),
		CreatedBy:   uuid.New(),
		Permissions: []string{"order:read"},
	}
	keys := new(mockAPIKeys)
	keys.On("Authenticate", mock.Anything, "sk_live_good").Return(principal, nil)
	keys.On("Authenticate", mock.Anything, "sk_live_bad").
		Return(nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid or expired API key"))
	keys.On("Authenticate", mock.Anything, "sk_live_broken").Return(nil, errors.New("db down"))

	router := newAuthRouter(JWTMiddlewareConfig{JWTService: newTestJWTService(), APIKeys: keys}, func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, APIKeyRole, claims.Role)
		assert.True(t, claims.HasPermission("order:read"))
		assert.False(t, claims.HasPermission("order:create"))
		assert.Equal(t, principal.TenantID.String(), GetJWTTenantID(c))
		assert.Equal(t, principal.CreatedBy.String(), GetJWTUserID(c))
		assert.Equal(t, principal.KeyID.String(), GetAPIKeyID(c))
		c.Status(http.StatusOK)
	})

	serve := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
		req.Header.Set(APIKeyHeader, key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("sk_live_good").Code)

	for _, key := range []string{"sk_live_bad", "sk_live_broken"} {
		rec := serve(key)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "ERR_UNAUTHORIZED", errorCode(t, rec))
	}
	keys.AssertExpectations(t)
}
