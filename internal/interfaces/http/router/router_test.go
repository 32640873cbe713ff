package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(NewDomainGroup("a", "/a"), NewDomainGroup("b", "/b"))

	assert.Len(t, r.registrars, 2)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/outside", func(c *gin.Context) {
		c.String(http.StatusOK, "outside")
	})

	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	})
	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	methods := []struct {
		method   string
		register func(g *DomainGroup, path string, h gin.HandlerFunc)
	}{
		{http.MethodGet, func(g *DomainGroup, p string, h gin.HandlerFunc) { g.GET(p, h) }},
		{http.MethodPost, func(g *DomainGroup, p string, h gin.HandlerFunc) { g.POST(p, h) }},
		{http.MethodPut, func(g *DomainGroup, p string, h gin.HandlerFunc) { g.PUT(p, h) }},
		{http.MethodPatch, func(g *DomainGroup, p string, h gin.HandlerFunc) { g.PATCH(p, h) }},
		{http.MethodDelete, func(g *DomainGroup, p string, h gin.HandlerFunc) { g.DELETE(p, h) }},
	}
	for _, m := range methods {
		t.Run("registers "+m.method+" route", func(t *testing.T) {
			engine := gin.New()
			g := NewDomainGroup("test", "/test")
			m.register(g, "/items/:id", func(c *gin.Context) {
				c.String(http.StatusOK, c.Param("id"))
			})

			g.RegisterRoutes(engine.Group("/api/v1"))

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(m.method, "/api/v1/test/items/123", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "123", w.Body.String())
		})
	}

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("registers subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("orders", "/orders")
		g.Group("returns", "/:id/returns").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "returns of "+c.Param("id"))
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42/returns", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "returns of 42", w.Body.String())
	})
}

func TestDomainGroupRoutes(t *testing.T) {
	noop := func(c *gin.Context) {}

	g := NewDomainGroup("orders", "/orders")
	g.GET("", noop)
	g.POST("/:id/cancel", noop)
	g.Group("returns", "/:id/returns").GET("", noop).POST("/", noop)

	routes := g.Routes()
	require.Len(t, routes, 4)

	got := make([]string, 0, len(routes))
	for _, r := range routes {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /orders",
		"POST /orders/:id/cancel",
		"GET /orders/:id/returns",
		"POST /orders/:id/returns/",
	}, got)
}
