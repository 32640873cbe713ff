package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/infrastructure/auth"
)

func withClaims(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(JWTClaimsKey, &auth.Claims{UserID: "u1", TenantID: "t1", Permissions: perms})
		c.Next()
	}
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		setup  gin.HandlerFunc
		guard  gin.HandlerFunc
		status int
	}{
		{name: "granted", setup: withClaims("product:read"), guard: RequirePermission("product:read"), status: http.StatusOK},
		{name: "missing permission", setup: withClaims("product:read"), guard: RequirePermission("product:delete"), status: http.StatusForbidden},
		{name: "no claims", setup: func(c *gin.Context) { c.Next() }, guard: RequirePermission("product:read"), status: http.StatusForbidden},
		{name: "any of", setup: withClaims("order:update"), guard: RequireAnyPermission("order:create", "order:update"), status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/x", tt.setup, tt.guard, ok)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "ERR_FORBIDDEN")
			}
		})
	}
}

func TestPermissions_ResourceDerivesAction(t *testing.T) {
	perms := NewPermissions(zap.NewNop())
	router := gin.New()
	guard := perms.Resource("coupon")
	router.GET("/coupons", withClaims("coupon:read"), guard, ok)
	router.POST("/coupons", withClaims("coupon:read"), guard, ok)
	router.DELETE("/coupons/:id", withClaims("coupon:read", "coupon:delete"), guard, ok)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/coupons", http.StatusOK},
		{http.MethodPost, "/coupons", http.StatusForbidden},
		{http.MethodDelete, "/coupons/1", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, tc.method+" "+tc.path)
	}
}
