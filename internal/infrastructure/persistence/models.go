package persistence

import (
	"github.com/smartstore/backend/internal/domain/catalog"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/integration"
	"github.com/smartstore/backend/internal/domain/inventory"
	"github.com/smartstore/backend/internal/domain/loyalty"
	"github.com/smartstore/backend/internal/domain/marketing"
	"github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/payment"
	"github.com/smartstore/backend/internal/domain/trade"
)

// AllModels lists every persisted entity. Production schemas come from the
// SQL migrations; this list drives AutoMigrate for throwaway test databases.
func AllModels() []interface{} {
	return []interface{}{
		&identity.Organization{},
		&identity.User{},
		&identity.APIKey{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductVariant{},
		&partner.Customer{},
		&partner.Warehouse{},
		&inventory.InventoryItem{},
		&inventory.StockMovement{},
		&inventory.LowStockAlert{},
		&trade.Order{},
		&trade.OrderItem{},
		&trade.ReturnRequest{},
		&trade.Delivery{},
		&payment.Payment{},
		&payment.ProcessedWebhook{},
		&marketing.Coupon{},
		&marketing.Campaign{},
		&loyalty.Transaction{},
		&notification.Notification{},
		&integration.Integration{},
	}
}

// UniqueConstraints are the composite unique indexes AutoMigrate cannot
// express through struct tags. They mirror the SQL migrations.
var UniqueConstraints = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_categories_slug ON categories (tenant_id, slug)",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku ON products (tenant_id, sku) WHERE deleted_at IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_product_variants_sku ON product_variants (tenant_id, sku)",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_email ON customers (tenant_id, email) WHERE deleted_at IS NULL AND email <> ''",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_warehouses_code ON warehouses (tenant_id, code) WHERE deleted_at IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_inventory_items_location ON inventory_items (warehouse_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'))",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_stock_movements_idem ON stock_movements (tenant_id, idempotency_key)",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_number ON orders (tenant_id, order_number)",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_external ON orders (tenant_id, channel, external_id) WHERE external_id <> ''",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_payments_provider_ref ON payments (provider, provider_ref) WHERE provider_ref <> ''",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_coupons_code ON coupons (tenant_id, code) WHERE deleted_at IS NULL",
	"CREATE UNIQUE INDEX IF NOT EXISTS ux_integrations_name ON integrations (tenant_id, platform, name) WHERE deleted_at IS NULL",
}
