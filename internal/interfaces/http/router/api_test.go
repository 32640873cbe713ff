package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/infrastructure/auth"
	"github.com/smartstore/backend/internal/interfaces/http/middleware"
)

// guardedEngine mounts every API route with its guards in front of a stub
// handler, so only the permission checks are exercised.
func guardedEngine(role identity.Role) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api/v1")
	if role != "" {
		api.Use(func(c *gin.Context) {
			c.Set(middleware.JWTClaimsKey, &auth.Claims{
				TenantID:    "t1",
				UserID:      "u1",
				Role:        string(role),
				Permissions: role.Permissions(),
			})
			c.Next()
		})
	}
	stub := func(c *gin.Context) { c.Status(http.StatusOK) }

	for _, g := range Routes(Handlers{}, middleware.NewPermissions(zap.NewNop())) {
		guards := append([]gin.HandlerFunc{}, g.middleware...)
		for _, r := range g.Routes() {
			chain := append(append([]gin.HandlerFunc{}, guards...), r.handlers[:len(r.handlers)-1]...)
			api.Handle(r.Method, r.Path, append(chain, stub)...)
		}
	}
	return engine
}

func TestRoutes_PermissionGuards(t *testing.T) {
	tests := []struct {
		name   string
		role   identity.Role
		method string
		path   string
		want   int
	}{
		{"viewer lists products", identity.RoleViewer, http.MethodGet, "/api/v1/products", http.StatusOK},
		{"viewer cannot create products", identity.RoleViewer, http.MethodPost, "/api/v1/products", http.StatusForbidden},
		{"viewer validates coupons", identity.RoleViewer, http.MethodPost, "/api/v1/coupons/validate", http.StatusOK},
		{"viewer cannot delete users", identity.RoleViewer, http.MethodDelete, "/api/v1/users/1", http.StatusForbidden},
		{"staff moves stock", identity.RoleStaff, http.MethodPost, "/api/v1/inventory/movements", http.StatusOK},
		{"staff transfers stock", identity.RoleStaff, http.MethodPost, "/api/v1/inventory/transfers", http.StatusOK},
		{"staff cannot read dashboard", identity.RoleStaff, http.MethodGet, "/api/v1/dashboard/summary", http.StatusForbidden},
		{"staff cannot refund", identity.RoleStaff, http.MethodPost, "/api/v1/payments/1/refund", http.StatusForbidden},
		{"staff cannot list users", identity.RoleStaff, http.MethodGet, "/api/v1/users", http.StatusForbidden},
		{"manager refunds", identity.RoleManager, http.MethodPost, "/api/v1/payments/1/refund", http.StatusOK},
		{"manager sends campaigns", identity.RoleManager, http.MethodPost, "/api/v1/campaigns/1/send", http.StatusOK},
		{"manager syncs integrations", identity.RoleManager, http.MethodPost, "/api/v1/integrations/1/sync", http.StatusOK},
		{"manager cannot change roles", identity.RoleManager, http.MethodPut, "/api/v1/users/1/role", http.StatusForbidden},
		{"manager adjusts loyalty", identity.RoleManager, http.MethodPost, "/api/v1/customers/1/loyalty/adjust", http.StatusOK},
		{"admin cannot update organization", identity.RoleAdmin, http.MethodPut, "/api/v1/organization", http.StatusForbidden},
		{"owner updates organization", identity.RoleOwner, http.MethodPut, "/api/v1/organization", http.StatusOK},
		{"anonymous login", "", http.MethodPost, "/api/v1/auth/login", http.StatusOK},
		{"anonymous webhook", "", http.MethodPost, "/api/v1/webhooks/stripe", http.StatusOK},
		{"anonymous is denied", "", http.MethodGet, "/api/v1/orders", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := guardedEngine(tt.role)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRoutes_EveryPrivateRouteIsGuarded(t *testing.T) {
	paths, prefixes := PublicPaths("")
	for _, g := range Routes(Handlers{}, middleware.NewPermissions(zap.NewNop())) {
		for _, r := range g.Routes() {
			public := false
			for _, p := range paths {
				public = public || r.Path == p
			}
			for _, p := range prefixes {
				public = public || strings.HasPrefix(r.Path, p)
			}
			if public || g.Name() == "auth" {
				continue
			}
			guards := len(g.middleware) + len(r.handlers) - 1
			assert.GreaterOrEqual(t, guards, 1, "%s %s has no permission guard", r.Method, r.Path)
		}
	}
}

func TestPublicPaths(t *testing.T) {
	paths, prefixes := PublicPaths("/api/v1")

	assert.Contains(t, paths, "/api/v1/auth/login")
	assert.Contains(t, paths, "/api/v1/auth/refresh")
	assert.NotContains(t, paths, "/api/v1/auth/logout")
	assert.Equal(t, []string{"/api/v1/webhooks/"}, prefixes)
}
