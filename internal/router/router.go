package router

import (
	"time"

	"melodia/internal/config"
	"melodia/internal/handler"
	"melodia/internal/infra"
	"melodia/internal/middleware"
	"melodia/internal/repository"
	"melodia/internal/service"
	"melodia/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gatewayCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	gateway := infra.NewGatewayClient(cfg.GatewayURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	cartRepo := repository.NewCartRepository(db)
	promoRepo := repository.NewPromotionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(articleRepo, movementRepo)
	catalogSvc := service.NewCatalogService(articleRepo, inventorySvc)
	promoSvc := service.NewPromotionService(promoRepo, articleRepo)
	cartSvc := service.NewCartService(cartRepo, articleRepo, promoSvc)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, promoRepo, inventorySvc, dispatcher, cfg)
	paymentSvc := service.NewPaymentService(paymentRepo, invoiceRepo, orderRepo, gateway, gatewayCB, dispatcher, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	articlesH := handler.NewArticlesHandler(catalogSvc)
	priceH := handler.NewPriceCheckHandler(catalogSvc, rdb)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	cartH := handler.NewCartHandler(cartSvc)
	promosH := handler.NewPromotionsHandler(promoSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc, cfg)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, gatewayCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Catalog browsing and price check need no account
	r.GET("/v1/articulos", articlesH.List)
	r.GET("/v1/articulos/:id", articlesH.Get)
	r.GET("/v1/precio/:sku", priceH.GetPriceBySKU)
	r.GET("/v1/promociones", promosH.List)

	// Protected routes
	jwtMW := middleware.Auth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		cart := v1.Group("/carrito")
		{
			cart.GET("", cartH.Get)
			cart.DELETE("", cartH.Clear)
			cart.POST("/items", cartH.AddItem)
			cart.PUT("/items/:id", cartH.UpdateItem)
			cart.DELETE("/items/:id", cartH.RemoveItem)
			cart.POST("/promocion", cartH.ApplyPromotion)
		}

		orders := v1.Group("/ordenes")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.GET("/numero/:numero", ordersH.GetByNumber)
			orders.POST("/:id/cancelar", ordersH.Cancel)
			orders.GET("/:id/factura", paymentsH.GetInvoice)
			orders.GET("/:id/factura/pdf", paymentsH.DownloadInvoicePDF)
			orders.PATCH("/:id/estado", middleware.RequireRole(middleware.RolAdministrador), ordersH.UpdateStatus)
			orders.GET("/:id/pagos", middleware.RequireRole(middleware.RolAdministrador), paymentsH.ListByOrder)
		}

		v1.POST("/pagos", paymentsH.Process)
		v1.POST("/pagos/:id/reembolso", middleware.RequireRole(middleware.RolAdministrador), paymentsH.Refund)

		// Catalog writes — administrador only
		articles := v1.Group("/articulos", middleware.RequireRole(middleware.RolAdministrador))
		{
			articles.POST("", articlesH.Create)
			articles.PATCH("/:id", articlesH.Update)
			articles.POST("/:id/stock", inventoryH.AdjustStock)
		}

		inv := v1.Group("/inventario", middleware.RequireRole(middleware.RolAdministrador))
		{
			inv.GET("/movimientos", inventoryH.ListMovements)
			inv.GET("/alertas", inventoryH.StockAlerts)
		}

		promos := v1.Group("/promociones", middleware.RequireRole(middleware.RolAdministrador))
		{
			promos.POST("", promosH.Create)
			promos.PATCH("/:id/activa", promosH.SetActive)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
