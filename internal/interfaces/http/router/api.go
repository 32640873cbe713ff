package router

import (
	"github.com/gin-gonic/gin"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/interfaces/http/handler"
	"github.com/smartstore/backend/internal/interfaces/http/middleware"
)

// Handlers holds every API handler mounted by Routes
type Handlers struct {
	Auth           *handler.AuthHandler
	Organization   *handler.OrganizationHandler
	User           *handler.UserHandler
	APIKey         *handler.APIKeyHandler
	Category       *handler.CategoryHandler
	Product        *handler.ProductHandler
	Customer       *handler.CustomerHandler
	Warehouse      *handler.WarehouseHandler
	Loyalty        *handler.LoyaltyHandler
	Recommendation *handler.RecommendationHandler
	Inventory      *handler.InventoryHandler
	Order          *handler.OrderHandler
	Return         *handler.ReturnHandler
	Payment        *handler.PaymentHandler
	Delivery       *handler.DeliveryHandler
	Coupon         *handler.CouponHandler
	Campaign       *handler.CampaignHandler
	Notification   *handler.NotificationHandler
	Integration    *handler.IntegrationHandler
	Dashboard      *handler.DashboardHandler
	Webhook        *handler.WebhookHandler
}

// Public routes relative to the API base path
var (
	publicPaths = []string{
		"/auth/register",
		"/auth/login",
		"/auth/refresh",
	}
	publicPrefixes = []string{
		"/webhooks/",
	}
)

// PublicPaths returns the unauthenticated exact paths and path prefixes
// under basePath, in the form the JWT middleware skip lists expect
func PublicPaths(basePath string) (paths, prefixes []string) {
	for _, p := range publicPaths {
		paths = append(paths, basePath+p)
	}
	for _, p := range publicPrefixes {
		prefixes = append(prefixes, basePath+p)
	}
	return paths, prefixes
}

func perm(resource, action string) string {
	return identity.Permission(resource, action)
}

// Routes builds the domain groups of the versioned API. Every authenticated
// route carries its permission guard.
func Routes(h Handlers, perms *middleware.Permissions) []*DomainGroup {
	read := func(resource string) gin.HandlerFunc { return perms.Require(perm(resource, identity.ActionRead)) }
	create := func(resource string) gin.HandlerFunc { return perms.Require(perm(resource, identity.ActionCreate)) }
	update := func(resource string) gin.HandlerFunc { return perms.Require(perm(resource, identity.ActionUpdate)) }
	remove := func(resource string) gin.HandlerFunc { return perms.Require(perm(resource, identity.ActionDelete)) }

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.PUT("/password", h.Auth.ChangePassword)

	org := NewDomainGroup("organization", "/organization")
	org.GET("", read(identity.ResourceOrganization), h.Organization.Get)
	org.PUT("", update(identity.ResourceOrganization), h.Organization.Update)

	users := NewDomainGroup("users", "/users").Use(perms.Resource(identity.ResourceUser))
	users.GET("", h.User.List)
	users.POST("", h.User.Create)
	users.GET("/:id", h.User.Get)
	users.PUT("/:id", h.User.Update)
	users.PUT("/:id/role", h.User.ChangeRole)
	users.DELETE("/:id", h.User.Delete)

	apiKeys := NewDomainGroup("api-keys", "/api-keys").Use(perms.Resource(identity.ResourceAPIKey))
	apiKeys.GET("", h.APIKey.List)
	apiKeys.POST("", h.APIKey.Create)
	apiKeys.DELETE("/:id", h.APIKey.Revoke)

	categories := NewDomainGroup("categories", "/categories").Use(perms.Resource(identity.ResourceCategory))
	categories.GET("", h.Category.List)
	categories.POST("", h.Category.Create)
	categories.GET("/:id", h.Category.GetByID)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)

	products := NewDomainGroup("products", "/products")
	products.GET("", read(identity.ResourceProduct), h.Product.List)
	products.POST("", create(identity.ResourceProduct), h.Product.Create)
	products.GET("/sku/:sku", read(identity.ResourceProduct), h.Product.GetBySKU)
	products.GET("/:id", read(identity.ResourceProduct), h.Product.GetByID)
	products.PUT("/:id", update(identity.ResourceProduct), h.Product.Update)
	products.DELETE("/:id", remove(identity.ResourceProduct), h.Product.Delete)
	products.POST("/:id/variants", update(identity.ResourceProduct), h.Product.AddVariant)
	products.PUT("/:id/variants/:variantId", update(identity.ResourceProduct), h.Product.UpdateVariant)
	products.DELETE("/:id/variants/:variantId", update(identity.ResourceProduct), h.Product.RemoveVariant)
	products.POST("/:id/image", update(identity.ResourceProduct), h.Product.PrepareImageUpload)

	customers := NewDomainGroup("customers", "/customers")
	customers.GET("", read(identity.ResourceCustomer), h.Customer.List)
	customers.POST("", create(identity.ResourceCustomer), h.Customer.Create)
	customers.GET("/:id", read(identity.ResourceCustomer), h.Customer.GetByID)
	customers.PUT("/:id", update(identity.ResourceCustomer), h.Customer.Update)
	customers.DELETE("/:id", remove(identity.ResourceCustomer), h.Customer.Delete)
	customers.GET("/:id/orders", read(identity.ResourceOrder), h.Order.ListByCustomer)
	customers.GET("/:id/loyalty", read(identity.ResourceLoyalty), h.Loyalty.Balance)
	customers.GET("/:id/loyalty/transactions", read(identity.ResourceLoyalty), h.Loyalty.Ledger)
	customers.POST("/:id/loyalty/adjust", update(identity.ResourceLoyalty), h.Loyalty.Adjust)
	customers.GET("/:id/recommendations", perms.Require(identity.PermRecommendRead), h.Recommendation.ForCustomer)

	warehouses := NewDomainGroup("warehouses", "/warehouses").Use(perms.Resource(identity.ResourceWarehouse))
	warehouses.GET("", h.Warehouse.List)
	warehouses.POST("", h.Warehouse.Create)
	warehouses.GET("/:id", h.Warehouse.GetByID)
	warehouses.PUT("/:id", h.Warehouse.Update)
	warehouses.DELETE("/:id", h.Warehouse.Delete)

	inventory := NewDomainGroup("inventory", "/inventory")
	inventory.GET("", read(identity.ResourceInventory), h.Inventory.ListStock)
	inventory.GET("/movements", read(identity.ResourceInventory), h.Inventory.ListMovements)
	inventory.POST("/movements", perms.Require(identity.PermInventoryMove), h.Inventory.RecordMovement)
	inventory.POST("/transfers", perms.Require(identity.PermInventoryMove), h.Inventory.Transfer)
	inventory.GET("/alerts", read(identity.ResourceInventory), h.Inventory.ListAlerts)
	inventory.POST("/alerts/:id/acknowledge", update(identity.ResourceInventory), h.Inventory.AcknowledgeAlert)
	inventory.GET("/forecast/:productId", read(identity.ResourceInventory), h.Inventory.Forecast)

	orders := NewDomainGroup("orders", "/orders")
	orders.GET("", read(identity.ResourceOrder), h.Order.List)
	orders.POST("", create(identity.ResourceOrder), h.Order.Create)
	orders.GET("/:id", read(identity.ResourceOrder), h.Order.GetByID)
	orders.PUT("/:id/status", update(identity.ResourceOrder), h.Order.UpdateStatus)
	orders.POST("/:id/cancel", update(identity.ResourceOrder), h.Order.Cancel)
	orders.GET("/:id/invoice", read(identity.ResourceOrder), h.Order.Invoice)
	orders.GET("/:id/returns", read(identity.ResourceReturn), h.Return.ListByOrder)
	orders.POST("/:id/returns", create(identity.ResourceReturn), h.Return.Request)
	orders.GET("/:id/payments", read(identity.ResourcePayment), h.Payment.ListByOrder)
	orders.GET("/:id/deliveries", read(identity.ResourceDelivery), h.Delivery.ListByOrder)
	orders.POST("/:id/deliveries", create(identity.ResourceDelivery), h.Delivery.Create)

	returns := NewDomainGroup("returns", "/returns")
	returns.GET("/:id", read(identity.ResourceReturn), h.Return.GetByID)
	returns.POST("/:id/approve", update(identity.ResourceReturn), h.Return.Approve)
	returns.POST("/:id/reject", update(identity.ResourceReturn), h.Return.Reject)
	returns.POST("/:id/complete", update(identity.ResourceReturn), h.Return.Complete)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("", create(identity.ResourcePayment), h.Payment.Create)
	payments.GET("/:id", read(identity.ResourcePayment), h.Payment.GetByID)
	payments.POST("/:id/capture", update(identity.ResourcePayment), h.Payment.Capture)
	payments.POST("/:id/refund", perms.Require(identity.PermPaymentRefund), h.Payment.Refund)

	deliveries := NewDomainGroup("deliveries", "/deliveries")
	deliveries.GET("/:id", read(identity.ResourceDelivery), h.Delivery.GetByID)
	deliveries.PUT("/:id", update(identity.ResourceDelivery), h.Delivery.UpdateTracking)
	deliveries.PUT("/:id/status", update(identity.ResourceDelivery), h.Delivery.UpdateStatus)

	coupons := NewDomainGroup("coupons", "/coupons")
	coupons.GET("", read(identity.ResourceCoupon), h.Coupon.List)
	coupons.POST("", create(identity.ResourceCoupon), h.Coupon.Create)
	coupons.POST("/validate", read(identity.ResourceCoupon), h.Coupon.Validate)
	coupons.GET("/:id", read(identity.ResourceCoupon), h.Coupon.GetByID)
	coupons.PUT("/:id", update(identity.ResourceCoupon), h.Coupon.Update)
	coupons.DELETE("/:id", remove(identity.ResourceCoupon), h.Coupon.Delete)

	campaigns := NewDomainGroup("campaigns", "/campaigns")
	campaigns.GET("", read(identity.ResourceCampaign), h.Campaign.List)
	campaigns.POST("", create(identity.ResourceCampaign), h.Campaign.Create)
	campaigns.GET("/:id", read(identity.ResourceCampaign), h.Campaign.GetByID)
	campaigns.PUT("/:id", update(identity.ResourceCampaign), h.Campaign.Update)
	campaigns.DELETE("/:id", remove(identity.ResourceCampaign), h.Campaign.Delete)
	campaigns.POST("/:id/send", perms.Require(identity.PermCampaignSend), h.Campaign.Send)
	campaigns.POST("/:id/schedule", perms.Require(identity.PermCampaignSend), h.Campaign.Schedule)
	campaigns.POST("/:id/cancel", update(identity.ResourceCampaign), h.Campaign.Cancel)

	notifications := NewDomainGroup("notifications", "/notifications")
	notifications.GET("", read(identity.ResourceNotification), h.Notification.List)
	notifications.POST("", create(identity.ResourceNotification), h.Notification.Send)
	notifications.GET("/:id", read(identity.ResourceNotification), h.Notification.GetByID)
	notifications.POST("/:id/read", read(identity.ResourceNotification), h.Notification.MarkRead)

	integrations := NewDomainGroup("integrations", "/integrations")
	integrations.GET("", read(identity.ResourceIntegration), h.Integration.List)
	integrations.POST("", create(identity.ResourceIntegration), h.Integration.Create)
	integrations.GET("/:id", read(identity.ResourceIntegration), h.Integration.GetByID)
	integrations.PUT("/:id", update(identity.ResourceIntegration), h.Integration.Update)
	integrations.DELETE("/:id", remove(identity.ResourceIntegration), h.Integration.Delete)
	integrations.POST("/:id/test", perms.Require(identity.PermIntegrationSync), h.Integration.TestConnection)
	integrations.POST("/:id/sync", perms.Require(identity.PermIntegrationSync), h.Integration.Sync)

	dashboard := NewDomainGroup("dashboard", "/dashboard")
	dashboard.GET("/summary", perms.Require(identity.PermReportRead), h.Dashboard.Summary)

	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/stripe", h.Webhook.Stripe)
	webhooks.POST("/paypal", h.Webhook.PayPal)
	webhooks.GET("/whatsapp", h.Webhook.VerifyWhatsApp)
	webhooks.POST("/whatsapp", h.Webhook.WhatsApp)

	return []*DomainGroup{
		auth, org, users, apiKeys, categories, products, customers, warehouses, inventory,
		orders, returns, payments, deliveries, coupons, campaigns, notifications, integrations,
		dashboard, webhooks,
	}
}
