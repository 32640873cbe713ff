package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/smartstore/backend/docs"
	catalogapp "github.com/smartstore/backend/internal/application/catalog"
	identityapp "github.com/smartstore/backend/internal/application/identity"
	integrationapp "github.com/smartstore/backend/internal/application/integration"
	inventoryapp "github.com/smartstore/backend/internal/application/inventory"
	loyaltyapp "github.com/smartstore/backend/internal/application/loyalty"
	marketingapp "github.com/smartstore/backend/internal/application/marketing"
	notifapp "github.com/smartstore/backend/internal/application/notification"
	partnerapp "github.com/smartstore/backend/internal/application/partner"
	paymentapp "github.com/smartstore/backend/internal/application/payment"
	recommendationapp "github.com/smartstore/backend/internal/application/recommendation"
	tradeapp "github.com/smartstore/backend/internal/application/trade"
	"github.com/smartstore/backend/internal/infrastructure/auth"
	"github.com/smartstore/backend/internal/infrastructure/cache"
	"github.com/smartstore/backend/internal/infrastructure/channel"
	"github.com/smartstore/backend/internal/infrastructure/config"
	"github.com/smartstore/backend/internal/infrastructure/event"
	"github.com/smartstore/backend/internal/infrastructure/logger"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
	payinfra "github.com/smartstore/backend/internal/infrastructure/payment"
	"github.com/smartstore/backend/internal/infrastructure/persistence"
	"github.com/smartstore/backend/internal/infrastructure/printing"
	"github.com/smartstore/backend/internal/infrastructure/scheduler"
	"github.com/smartstore/backend/internal/infrastructure/storage"
	"github.com/smartstore/backend/internal/infrastructure/telemetry"
	"github.com/smartstore/backend/internal/interfaces/http/handler"
	"github.com/smartstore/backend/internal/interfaces/http/middleware"
	"github.com/smartstore/backend/internal/interfaces/http/router"
)

//	@title			SmartStore API
//	@version		1.0
//	@description	Multi-tenant commerce backend: catalog, inventory, orders, payments, delivery, loyalty, marketing and channel integrations.

//	@contact.name	API Support
//	@contact.email	support@smartstore.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Tenant API key for server-to-server access

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.NewForEnvironment(cfg.App.Env, logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Rebuild the logger so entries are also exported over OTLP
	if tel.Logs.IsEnabled() {
		core := tel.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		log, err = logger.NewForEnvironment(cfg.App.Env, logCfg, core)
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SmartStore",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.GormLevel), cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterGormTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	stores, err := cache.NewStores(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client)
	}

	// Object storage is optional; without it image uploads are refused and
	// invoices are not archived
	var (
		images      catalogapp.ImageStorage
		imageLinks  integrationapp.ImageLinker
		invoiceArch printing.ObjectArchive
	)
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Storage(ctx, cfg.Storage,
			storage.WithLogger(log.Named("storage")),
			storage.WithPresignExpiry(cfg.Storage.PresignExpiry),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3.Bucket()))
		}
		images, imageLinks, invoiceArch = s3, s3, s3
	}

	// Repositories
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	alertRepo := persistence.NewGormLowStockAlertRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	returnRepo := persistence.NewGormReturnRequestRepository(db.DB)
	deliveryRepo := persistence.NewGormDeliveryRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	processedWebhookRepo := persistence.NewGormProcessedWebhookRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	loyaltyRepo := persistence.NewGormLoyaltyTransactionRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	eventBus := event.NewInMemoryEventBus(log.Named("events"), event.WithAsyncDispatch())

	// Providers
	providers, err := payinfra.NewProviders(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize payment providers", zap.Error(err))
	}
	renderer := printing.NewRenderer(cfg.Printing, log.Named("printing"))
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	senders := messaging.NewSenders(cfg, integrationRepo, log)

	// Application services
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(orgRepo, userRepo, txManager, hasher, jwtService, blacklist, log)
	orgService := identityapp.NewOrganizationService(orgRepo, log)
	userService := identityapp.NewUserService(userRepo, hasher, log)
	apiKeyService := identityapp.NewAPIKeyService(apiKeyRepo, userRepo, log)

	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, orgRepo, images, log)
	customerService := partnerapp.NewCustomerService(customerRepo, log)
	warehouseService := partnerapp.NewWarehouseService(warehouseRepo, txManager, log)

	inventoryService := inventoryapp.NewInventoryService(
		inventoryRepo, movementRepo, alertRepo, productRepo, warehouseRepo, orgRepo, txManager, eventBus, log,
	)
	loyaltyService := loyaltyapp.NewLoyaltyService(customerRepo, loyaltyRepo, orgRepo, txManager, log)
	orderService := tradeapp.NewOrderService(
		orderRepo, customerRepo, productRepo, couponRepo, orgRepo, inventoryService, loyaltyService, txManager, eventBus, log,
	)
	paymentService := paymentapp.NewPaymentService(paymentapp.PaymentServiceConfig{
		PaymentRepo:  paymentRepo,
		OrderRepo:    orderRepo,
		CustomerRepo: customerRepo,
		Gateways:     providers.Gateways,
		Points:       loyaltyService,
		TxManager:    txManager,
		Publisher:    eventBus,
		BaseURL:      cfg.App.BaseURL,
		Logger:       log,
	})
	returnService := tradeapp.NewReturnService(
		returnRepo, orderRepo, customerRepo, inventoryService, loyaltyService, paymentService, txManager, eventBus, log,
	)
	deliveryService := tradeapp.NewDeliveryService(deliveryRepo, orderRepo, txManager, eventBus, log)
	invoiceService := tradeapp.NewInvoiceService(
		orderRepo, customerRepo, orgRepo, printing.NewInvoiceGenerator(renderer, invoiceArch, log.Named("invoice")), log,
	)
	dashboardService := tradeapp.NewDashboardService(orderRepo, customerRepo, orgRepo, inventoryService)

	couponService := marketingapp.NewCouponService(couponRepo, orgRepo, log)
	notificationService := notifapp.NewNotificationService(notificationRepo, orgRepo, senders, log)
	campaignService := marketingapp.NewCampaignService(campaignRepo, customerRepo, orgRepo, notificationService, log)
	integrationService := integrationapp.NewIntegrationService(
		integrationRepo, channel.NewDefaultRegistry(cfg, log), productRepo, inventoryRepo, orderService, imageLinks, cfg.App.BaseURL, log,
	)
	recommendationService := recommendationapp.NewRecommendationService(
		persistence.NewGormRecommendationSource(db.DB), customerRepo, stores.JSON, log,
	)
	recommendationService.SetCacheTTL(cfg.Recommendation.CacheTTL)

	paymentWebhooks := paymentapp.NewWebhookService(providers.Verifiers, paymentService, stores.Idempotency, processedWebhookRepo, log)
	whatsAppWebhooks := notifapp.NewWhatsAppWebhookService(cfg.WhatsApp, integrationRepo, customerRepo, notificationRepo, stores.Idempotency, log)

	// Cross-context event handlers
	lowStockNotifier := notifapp.NewLowStockNotifier(notificationService, orgRepo, userRepo, log)
	businessMetrics, err := telemetry.NewBusinessMetrics(tel.Meter.Meter("smartstore"))
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	loyaltyHandler := loyaltyService.OrderPaidHandler()
	lowStockHandler := lowStockNotifier.Handler()
	recommendationHandler := recommendationService.OrderCreatedHandler()
	eventBus.Subscribe(loyaltyHandler)
	eventBus.Subscribe(lowStockHandler)
	eventBus.Subscribe(recommendationHandler)
	eventBus.Subscribe(businessMetrics)

	log.Info("Event handlers registered",
		zap.Strings("loyalty_events", loyaltyHandler.EventTypes()),
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
		zap.Strings("recommendation_events", recommendationHandler.EventTypes()),
		zap.Strings("metrics_events", businessMetrics.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	campaignScheduler := scheduler.NewCampaignScheduler(cfg.Scheduler, campaignService, log.Named("scheduler"))
	if err := campaignScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start campaign scheduler", zap.Error(err))
	}
	defer func() {
		if err := campaignScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping campaign scheduler", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID
	// 2. Recovery
	// 3. Tracing, before the logger so log lines carry the trace ID
	// 4. Logger
	// 5. Metrics
	// 6. CORS
	// 7. BodyLimit
	// 8. RateLimit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	engine.Use(logger.GinMiddleware(log))

	if cfg.HTTP.MetricsEnabled {
		httpMetrics := telemetry.NewHTTPMetrics("smartstore")
		engine.Use(httpMetrics.Middleware())
		engine.GET("/metrics", gin.WrapH(httpMetrics.Handler()))
	}

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(db.Ping),
	}
	if stores.Client != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return stores.Client.Ping(ctx).Err()
		})
	}
	engine.GET("/health", handler.NewHealthHandler(checks, log).Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	skipPaths, skipPrefixes := router.PublicPaths(r.BasePath())
	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:       jwtService,
		TokenBlacklist:   blacklist,
		APIKeys:          apiKeyService,
		SkipPaths:        skipPaths,
		SkipPathPrefixes: skipPrefixes,
		Logger:           log,
	})
	r.Use(
		middleware.SecureWithConfig(middleware.SecurityConfig{
			HSTSEnabled:  cfg.App.IsProduction(),
			HSTSMaxAge:   middleware.DefaultSecurityConfig().HSTSMaxAge,
			CSPDirective: middleware.DefaultSecurityConfig().CSPDirective,
		}),
		jwtAuth,
		middleware.SpanEnricher(),
	)

	if cfg.Swagger.Enabled {
		chain := []gin.HandlerFunc{}
		if len(cfg.Swagger.AllowedIPs) > 0 {
			chain = append(chain, allowIPs(cfg.Swagger.AllowedIPs))
		}
		if cfg.Swagger.RequireAuth {
			chain = append(chain, middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
				JWTService:     jwtService,
				TokenBlacklist: blacklist,
				Logger:         log,
			}))
		}
		engine.GET("/swagger/*any", append(chain, ginSwagger.WrapHandler(swaggerFiles.Handler))...)
	}

	groups := router.Routes(router.Handlers{
		Auth:           handler.NewAuthHandler(authService, cfg.Cookie),
		Organization:   handler.NewOrganizationHandler(orgService),
		User:           handler.NewUserHandler(userService),
		APIKey:         handler.NewAPIKeyHandler(apiKeyService),
		Category:       handler.NewCategoryHandler(categoryService),
		Product:        handler.NewProductHandler(productService),
		Customer:       handler.NewCustomerHandler(customerService),
		Warehouse:      handler.NewWarehouseHandler(warehouseService),
		Loyalty:        handler.NewLoyaltyHandler(loyaltyService),
		Recommendation: handler.NewRecommendationHandler(recommendationService),
		Inventory:      handler.NewInventoryHandler(inventoryService),
		Order:          handler.NewOrderHandler(orderService, invoiceService),
		Return:         handler.NewReturnHandler(returnService),
		Payment:        handler.NewPaymentHandler(paymentService),
		Delivery:       handler.NewDeliveryHandler(deliveryService),
		Coupon:         handler.NewCouponHandler(couponService),
		Campaign:       handler.NewCampaignHandler(campaignService),
		Notification:   handler.NewNotificationHandler(notificationService),
		Integration:    handler.NewIntegrationHandler(integrationService),
		Dashboard:      handler.NewDashboardHandler(dashboardService),
		Webhook:        handler.NewWebhookHandler(paymentWebhooks, whatsAppWebhooks),
	}, middleware.NewPermissions(log))

	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		for _, g := range groups {
			if g.Name() == "auth" {
				g.Use(middleware.RateLimit(authLimiter))
			}
		}
	}
	for _, g := range groups {
		r.Register(g)
	}
	r.Setup()

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// allowIPs restricts a route to the listed client IPs
func allowIPs(ips []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(ips, c.ClientIP()) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
