// Command storectl is the operator CLI: it seeds a demo tenant and prints
// stock reports straight from the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	catalogapp "github.com/smartstore/backend/internal/application/catalog"
	identityapp "github.com/smartstore/backend/internal/application/identity"
	inventoryapp "github.com/smartstore/backend/internal/application/inventory"
	partnerapp "github.com/smartstore/backend/internal/application/partner"
	"github.com/smartstore/backend/internal/infrastructure/auth"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/event"
	"github.com/smartstore/backend/internal/infrastructure/logger"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
)

type services struct {
	auth       *identityapp.AuthService
	warehouses *partnerapp.WarehouseService
	categories *catalogapp.CategoryService
	products   *catalogapp.ProductService
	inventory  *inventoryapp.InventoryService
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	log, err := logger.New(&logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	switch command {
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		org := fs.String("org", "Demo Store", "organization name")
		email := fs.String("email", "owner@demo.smartstore.local", "owner email")
		password := fs.String("password", "DemoPass123!", "owner password")
		_ = fs.Parse(args)

		svc, closeDB := open(log)
		defer closeDB()
		if err := seed(context.Background(), svc, *org, *email, *password); err != nil {
			log.Fatal("Seed failed", zap.Error(err))
		}

	case "low-stock":
		fs := flag.NewFlagSet("low-stock", flag.ExitOnError)
		tenant := fs.String("tenant", "", "tenant ID (required)")
		status := fs.String("status", "OPEN", "alert status: OPEN, ACKNOWLEDGED or RESOLVED")
		_ = fs.Parse(args)

		tenantID, err := uuid.Parse(*tenant)
		if err != nil {
			log.Fatal("Invalid tenant ID", zap.String("tenant", *tenant))
		}
		svc, closeDB := open(log)
		defer closeDB()
		if err := lowStockReport(context.Background(), svc, tenantID, *status); err != nil {
			log.Fatal("Report failed", zap.Error(err))
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func open(log *zap.Logger) (*services, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel("silent"), 0)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	svc := &services{
		auth: identityapp.NewAuthService(orgRepo, userRepo, txManager,
			auth.NewBcryptHasher(bcrypt.DefaultCost), auth.NewJWTService(cfg.JWT), auth.NewInMemoryTokenBlacklist(), log),
		warehouses: partnerapp.NewWarehouseService(warehouseRepo, txManager, log),
		categories: catalogapp.NewCategoryService(categoryRepo, productRepo, log),
		products:   catalogapp.NewProductService(productRepo, categoryRepo, orgRepo, nil, log),
		inventory: inventoryapp.NewInventoryService(
			persistence.NewGormInventoryItemRepository(db.DB),
			persistence.NewGormStockMovementRepository(db.DB),
			persistence.NewGormLowStockAlertRepository(db.DB),
			productRepo, warehouseRepo, orgRepo, txManager,
			event.NewInMemoryEventBus(log), log,
		),
	}
	return svc, func() {
		if err := db.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}
}

type seedProduct struct {
	sku       string
	name      string
	price     string
	stock     int64
	threshold int
}

var demoProducts = []seedProduct{
	{sku: "TEE-WHT-M", name: "Cotton T-Shirt White M", price: "19.90", stock: 40, threshold: 5},
	{sku: "MUG-CER-01", name: "Ceramic Mug", price: "9.50", stock: 3, threshold: 5},
	{sku: "CAP-BLK", name: "Baseball Cap Black", price: "14.00", stock: 12, threshold: 10},
	{sku: "TOTE-NAT", name: "Canvas Tote Bag", price: "12.00", stock: 0, threshold: 2},
}

func seed(ctx context.Context, svc *services, orgName, email, password string) error {
	reg, err := svc.auth.Register(ctx, identityapp.RegisterRequest{
		OrganizationName: orgName,
		Email:            email,
		Password:         password,
		DisplayName:      "Demo Owner",
	})
	if err != nil {
		return fmt.Errorf("register tenant: %w", err)
	}
	tenantID, ownerID := reg.User.TenantID, reg.User.ID

	wh, err := svc.warehouses.Create(ctx, tenantID, partnerapp.WarehouseRequest{Code: "MAIN", Name: "Main Warehouse", IsDefault: true})
	if err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}
	cat, err := svc.categories.Create(ctx, tenantID, catalogapp.CategoryRequest{Name: "Merchandise"})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("SKU", "Product", "Price", "Stock", "Threshold")
	for _, p := range demoProducts {
		threshold := p.threshold
		prod, err := svc.products.Create(ctx, tenantID, ownerID, catalogapp.CreateProductRequest{
			SKU:               p.sku,
			Name:              p.name,
			CategoryID:        &cat.ID,
			Price:             decimal.RequireFromString(p.price),
			Status:            "ACTIVE",
			LowStockThreshold: &threshold,
		})
		if err != nil {
			return fmt.Errorf("create product %s: %w", p.sku, err)
		}
		if p.stock > 0 {
			_, err = svc.inventory.RecordMovement(ctx, tenantID, ownerID, inventoryapp.RecordMovementRequest{
				WarehouseID:    &wh.ID,
				ProductID:      prod.ID,
				Type:           "PURCHASE",
				Quantity:       p.stock,
				Reason:         "Opening stock",
				IdempotencyKey: "seed-" + p.sku,
			})
			if err != nil {
				return fmt.Errorf("stock product %s: %w", p.sku, err)
			}
		}
		if err := table.Append([]string{p.sku, p.name, p.price, strconv.FormatInt(p.stock, 10), strconv.Itoa(p.threshold)}); err != nil {
			return err
		}
	}

	fmt.Printf("Tenant:    %s\nOwner:     %s (%s)\nWarehouse: %s\n\n", tenantID, email, ownerID, wh.ID)
	return table.Render()
}

func lowStockReport(ctx context.Context, svc *services, tenantID uuid.UUID, status string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("SKU", "Product", "Warehouse", "Quantity", "Threshold", "Status", "Raised")

	rows := 0
	for page := 1; ; page++ {
		res, err := svc.inventory.ListAlerts(ctx, tenantID, inventoryapp.AlertListFilter{Status: status, Page: page, PageSize: 100})
		if err != nil {
			return err
		}
		for _, a := range res.Items {
			err := table.Append([]string{
				a.SKU,
				a.ProductName,
				a.WarehouseID.String()[:8],
				strconv.FormatInt(a.Quantity, 10),
				strconv.Itoa(a.Threshold),
				a.Status,
				a.CreatedAt.Format(time.DateTime),
			})
			if err != nil {
				return err
			}
			rows++
		}
		if page >= res.TotalPages {
			break
		}
	}

	if rows == 0 {
		fmt.Println("No low-stock alerts.")
		return nil
	}
	return table.Render()
}

func printUsage() {
	fmt.Println(`SmartStore operator CLI

Usage:
  storectl seed [-org name] [-email owner] [-password secret]
  storectl low-stock -tenant <uuid> [-status OPEN|ACKNOWLEDGED|RESOLVED]

Configuration is read the same way as the server (config.toml, .env,
SMARTSTORE_* environment variables).`)
}
