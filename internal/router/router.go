package router

import (
	"time"

	"odenehouk/config"
	"odenehouk/internal/handler"
	"odenehouk/internal/middleware"
	"odenehouk/internal/repository"
	"odenehouk/internal/security"
	"odenehouk/internal/service"
	"odenehouk/pkg/cloudinary"
	"odenehouk/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the external clients the routes need. Redis and Cloud may be nil.
type Deps struct {
	Provider payment.Provider
	Attempts security.AttemptTracker
	Redis    redis.UniversalClient
	Cloud    cloudinary.Client
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if !cfg.Server.IsProduction() {
		r.Use(gin.Logger())
	}
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.CORS(cfg.Server.FrontendURL))

	rl := cfg.RateLimit
	newLimiter := func(limit int, window time.Duration) middleware.Limiter {
		if rl.Store == "redis" && deps.Redis != nil {
			return middleware.NewRedisRateLimiter(deps.Redis, limit, window)
		}
		return middleware.NewInMemoryRateLimiter(limit, window)
	}
	general := middleware.RateLimit(newLimiter(rl.GeneralLimit, rl.GeneralWindow), "general")
	authLimit := middleware.RateLimit(newLimiter(rl.AuthLimit, rl.AuthWindow), "auth")
	strict := middleware.RateLimit(newLimiter(rl.StrictLimit, rl.StrictWindow), "strict")

	// Repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	reconciler := service.NewReconciler(db)
	authSvc := service.NewAuthService(cfg, db, deps.Attempts)
	checkoutSvc := service.NewCheckoutService(cfg, db, deps.Provider)
	paymentSvc := service.NewPaymentService(cfg, db, deps.Provider, reconciler)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(authSvc, auditRepo, cfg)
	productHandler := handler.NewProductHandler(productRepo, accessRepo, deps.Cloud)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(reconciler, &cfg.Payment)
	orderHandler := handler.NewOrderHandler(orderRepo)
	accessHandler := handler.NewAccessHandler(accessRepo)
	subHandler := handler.NewSubscriptionHandler(subRepo)
	adminHandler := handler.NewAdminHandler(adminRepo)

	r.GET("/", healthHandler.Root)
	r.GET("/api/health", healthHandler.Health)
	r.GET("/api/_startup_check", healthHandler.StartupCheck)

	// Provider callbacks read the raw body and sit outside the general limiter.
	r.POST("/api/webhooks/stripe", webhookHandler.Handle)

	api := r.Group("/api", general)
	authRequired := middleware.AuthRequired(&cfg.JWT)

	auth := api.Group("/auth", authLimit)
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.GET("/products/:id/files", authRequired, productHandler.Files)

	api.POST("/checkout/create-session", authRequired, strict, checkoutHandler.CreateSession)

	payments := api.Group("/payments", authRequired)
	{
		payments.POST("/create", strict, paymentHandler.Create)
		payments.POST("/refund", strict, paymentHandler.Refund)
	}

	me := api.Group("", authRequired)
	{
		me.GET("/orders", orderHandler.List)
		me.GET("/access", accessHandler.List)
		me.GET("/access/products/:id", accessHandler.Check)
		me.GET("/subscriptions", subHandler.List)
	}

	admin := api.Group("/admin", authRequired, middleware.AdminRequired())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/analytics", adminHandler.Analytics)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.UpdateUserStatus)
		admin.GET("/payments", adminHandler.ListPayments)
		admin.GET("/webhook-events", adminHandler.ListWebhookEvents)
		admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		admin.POST("/products", productHandler.Create)
		admin.POST("/products/:id/files", productHandler.UploadFile)
	}

	return r
}
