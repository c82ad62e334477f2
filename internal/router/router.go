package router

import (
	"context"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/handler"
	"stockroom/internal/infra"
	"stockroom/internal/middleware"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide resources the router wires into handlers.
// Redis, Dispatcher and MailCB may be nil. Vendor notifications are only
// queued when MailEnabled is set.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Dispatcher  *worker.Dispatcher
	MailCB      *infra.CircuitBreaker
	MailEnabled bool
	References  service.ReferenceGenerator
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds background goroutines started here (rate limiter purge).
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	apiLimiter := middleware.NewIPLimiter("api", cfg.RateLimitRPM, time.Minute)
	loginLimiter := middleware.NewIPLimiter("login", 20, time.Minute)
	apiLimiter.StartPurge(ctx, 5*time.Minute)
	loginLimiter.StartPurge(ctx, 5*time.Minute)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware())

	db := deps.DB

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	recorder := service.NewAuditRecorder(auditRepo, deps.Dispatcher)
	var mailQueue *worker.Dispatcher
	if deps.MailEnabled {
		mailQueue = deps.Dispatcher
	}
	ledger := service.NewInventoryLedger(inventoryRepo, movementRepo)

	authSvc := service.NewAuthService(userRepo, cfg, recorder)
	categorySvc := service.NewCategoryService(categoryRepo, recorder)
	inventorySvc := service.NewInventoryService(inventoryRepo, categoryRepo, vendorRepo, movementRepo, ledger, recorder)
	vendorSvc := service.NewVendorService(vendorRepo, recorder)
	poSvc := service.NewPurchaseOrderService(poRepo, vendorRepo, inventoryRepo, ledger, recorder, deps.References, mailQueue)
	orderSvc := service.NewOrderService(orderRepo, inventoryRepo, ledger, recorder)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, deps.Redis, time.Duration(cfg.AnalyticsCacheTTL)*time.Second)
	auditSvc := service.NewAuditService(auditRepo, recorder)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	vendorsH := handler.NewVendorsHandler(vendorSvc)
	poH := handler.NewPurchaseOrdersHandler(poSvc, cfg.CompanyName)
	ordersH := handler.NewOrdersHandler(orderSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)
	auditH := handler.NewAuditHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	api := r.Group("/api")

	// Public
	api.GET("/health", handler.Health(db, deps.Redis, deps.MailCB))

	auth := api.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", loginLimiter.Middleware(), authH.Refresh)
	}

	// Protected routes
	v := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	{
		v.GET("/auth/me", authH.Me)

		categories := v.Group("/categories")
		{
			categories.GET("", categoriesH.List)
			categories.POST("", categoriesH.Create)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Delete)
		}

		inv := v.Group("/inventory")
		{
			inv.GET("", inventoryH.List)
			inv.POST("", inventoryH.Create)
			inv.GET("/:id", inventoryH.Get)
			inv.PUT("/:id", inventoryH.Update)
			inv.DELETE("/:id", inventoryH.Delete)
			inv.GET("/:id/movements", inventoryH.Movements)
		}

		orders := v.Group("/orders")
		{
			orders.GET("", ordersH.List)
			orders.POST("", ordersH.Create)
			orders.GET("/:id", ordersH.Get)
			orders.PUT("/:id", ordersH.Update)
		}

		vendors := v.Group("/vendors", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
		{
			vendors.GET("", vendorsH.List)
			vendors.POST("", vendorsH.Create)
			vendors.GET("/:id", vendorsH.Get)
			vendors.PUT("/:id", vendorsH.Update)
			vendors.DELETE("/:id", vendorsH.Delete)
		}

		po := v.Group("/purchase-orders", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
		{
			po.GET("", poH.List)
			po.POST("", poH.Create)
			po.GET("/:id", poH.Get)
			po.PUT("/:id", poH.Update)
			po.DELETE("/:id", poH.Delete)
			po.PUT("/:id/status", poH.SetStatus)
			po.POST("/:id/receive", poH.Receive)
			po.GET("/:id/pdf", poH.PDF)
		}

		analytics := v.Group("/analytics")
		{
			analytics.GET("/low-stock", analyticsH.LowStock)
			analytics.GET("/inventory-value", analyticsH.InventoryValue)
			analytics.GET("/inventory-export", analyticsH.ExportInventory)
		}

		admin := v.Group("/admin", middleware.RequireRole(model.RoleAdmin))
		{
			admin.GET("/system-stats", analyticsH.SystemStats)

			admin.GET("/users", usersH.List)
			admin.POST("/users", usersH.Create)
			admin.PUT("/users/:id", usersH.Update)
			admin.DELETE("/users/:id", usersH.Deactivate)

			admin.GET("/audit-logs", auditH.List)
			admin.DELETE("/audit-logs", auditH.Purge)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
