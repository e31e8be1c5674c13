package router

import (
	"net/http"
	"time"

	"videoearn/config"
	"videoearn/internal/handler"
	"videoearn/internal/metrics"
	"videoearn/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, log *logrus.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, svcs *Services) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(m.Middleware())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Handlers
	authHandler := handler.NewAuthHandler(svcs.Auth, log)
	meHandler := handler.NewMeHandler(svcs.Accounts, svcs.Settings, log)
	videoHandler := handler.NewVideoHandler(svcs.Ledger, svcs.Settings, svcs.Accounts, log)
	paymentHandler := handler.NewPaymentHandler(svcs.Payments, log)
	withdrawalHandler := handler.NewWithdrawalHandler(svcs.Ledger, svcs.Settings, log)
	referralHandler := handler.NewReferralHandler(svcs.Accounts, svcs.Settings, log)
	notificationHandler := handler.NewNotificationHandler(svcs.Notifications, log)
	adminHandler := handler.NewAdminHandler(svcs.AdminRepo, svcs.Settings, svcs.Ledger, svcs.Reconcile, svcs.Auth, log)

	authMw := middleware.AuthRequired(&cfg.JWT)
	authLimiter := middleware.RateLimit(middleware.NewInMemoryRateLimiter(10, time.Minute))
	moneyLimiter := middleware.RateLimitByAccount(middleware.NewInMemoryRateLimiter(20, time.Minute))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(authLimiter)
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/admin/login", authHandler.AdminLogin)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/dashboard", meHandler.Dashboard)
			me.GET("/transactions", meHandler.Transactions)
			me.POST("/videos/complete", moneyLimiter, videoHandler.Complete)
			me.GET("/videos/earnings", videoHandler.Earnings)
			me.POST("/payments/orders", moneyLimiter, paymentHandler.CreateOrder)
			me.GET("/payments/orders/:order_id", paymentHandler.OrderStatus)
			me.POST("/payments/confirm", moneyLimiter, paymentHandler.Confirm)
			me.POST("/withdrawals", moneyLimiter, withdrawalHandler.Create)
			me.GET("/referral", referralHandler.Info)
			me.GET("/referrals", referralHandler.List)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		api.POST("/webhooks/payment", paymentHandler.Webhook)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/accounts", adminHandler.ListAccounts)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/resolve", adminHandler.ResolveWithdrawal)
			admin.GET("/deposits", adminHandler.ListDeposits)
			admin.GET("/premium", adminHandler.ListPremium)
			admin.GET("/referrals", adminHandler.ListReferrals)
			admin.POST("/referrals", adminHandler.GrantReferral)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/reconcile/:id", adminHandler.Reconcile)
		}
	}

	return r
}
