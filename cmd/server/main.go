package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gigplane/gigplane/internal/alerts"
	"github.com/gigplane/gigplane/internal/auth"
	"github.com/gigplane/gigplane/internal/config"
	"github.com/gigplane/gigplane/internal/db"
	"github.com/gigplane/gigplane/internal/marketplace"
	mware "github.com/gigplane/gigplane/internal/middleware"
	"github.com/gigplane/gigplane/internal/order"
	"github.com/gigplane/gigplane/internal/review"
	"github.com/gigplane/gigplane/internal/user"
	"github.com/gigplane/gigplane/internal/validation"
	"github.com/gigplane/gigplane/internal/wallet"
)

func main() {
	cfg := config.Load()

	db.Init(cfg.DB.DSN)
	alerts.Init(cfg.Redis.Addr)
	defer alerts.Close()

	orders := order.NewService(
		order.NewPgStore(db.Conn),
		cfg.Deadlines,
		wallet.NewEscrow(db.Conn),
		alerts.QueueNotifier{},
	)
	reviews := review.NewService(review.NewPgStore(db.Conn), orders)
	marketplace.Init(orders, reviews)

	// Deadline sweep runs alongside the API. The standalone sweeper binary
	// covers deployments that want it isolated.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go orders.RunSweep(sweepCtx, cfg.SweepInterval)

	e := echo.New()
	e.Validator = validation.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "gigplane"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/users/:id/profile", user.GetPublicProfile)
	e.GET("/marketplace/services", marketplace.GetAllServices)
	e.GET("/marketplace/services/:id", marketplace.GetService)
	e.GET("/marketplace/services/:id/reviews", marketplace.ListServiceReviews)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.PATCH("/users/profile", user.UpdateProfile)

	api.GET("/wallet/balance", wallet.Balance)
	api.GET("/wallet/transactions", wallet.Transactions)
	api.POST("/wallet/topup", wallet.Topup)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	api.POST("/marketplace/services", marketplace.CreateService, mware.RequireRoles("professional"))

	api.POST("/marketplace/orders", marketplace.CreateOrder, mware.RequireRoles("client"))
	api.GET("/marketplace/orders/me", marketplace.ListOrders)
	api.GET("/marketplace/orders/:id", marketplace.GetOrder)
	api.GET("/marketplace/orders/:id/timeline", marketplace.GetTimeline)
	api.GET("/marketplace/orders/:id/breakdown", marketplace.GetBreakdown)

	api.POST("/marketplace/orders/:id/start", marketplace.StartWork, mware.RequireRoles("professional"))
	api.POST("/marketplace/orders/:id/info", marketplace.SubmitExtraInfo, mware.RequireRoles("client"))
	api.POST("/marketplace/orders/:id/deliver", marketplace.SubmitDelivery, mware.RequireRoles("professional"))
	api.POST("/marketplace/orders/:id/complete", marketplace.CompleteOrder, mware.RequireRoles("client"))

	api.POST("/marketplace/orders/:id/revision", marketplace.RequestRevision, mware.RequireRoles("client"))
	api.POST("/marketplace/orders/:id/revision/respond", marketplace.RespondToRevision, mware.RequireRoles("professional"))

	api.POST("/marketplace/orders/:id/cancellation", marketplace.RequestCancellation)
	api.POST("/marketplace/orders/:id/cancellation/respond", marketplace.RespondToCancellation)
	api.POST("/marketplace/orders/:id/cancellation/withdraw", marketplace.WithdrawCancellation)

	api.POST("/marketplace/orders/:id/extension", marketplace.RequestExtension, mware.RequireRoles("professional"))
	api.POST("/marketplace/orders/:id/extension/respond", marketplace.RespondToExtension, mware.RequireRoles("client"))

	api.POST("/marketplace/orders/:id/dispute", marketplace.OpenDispute)
	api.POST("/marketplace/orders/:id/dispute/respond", marketplace.RespondToDispute)
	api.POST("/marketplace/orders/:id/dispute/arbitration", marketplace.RequestArbitration)
	api.POST("/marketplace/orders/:id/dispute/cancel", marketplace.CancelDispute)

	api.POST("/marketplace/orders/:id/review", marketplace.SubmitReview, mware.RequireRoles("client"))
	api.GET("/marketplace/orders/:id/review", marketplace.GetOrderReview)
	api.POST("/marketplace/reviews/:id/respond", marketplace.RespondToReview, mware.RequireRoles("professional"))
	api.POST("/marketplace/reviews/:id/hide", marketplace.HideReview, mware.RequireRoles("moderator"))
	api.POST("/marketplace/reviews/:id/unhide", marketplace.UnhideReview, mware.RequireRoles("moderator"))

	// Arbitration routes
	arb := e.Group("/arbitration")
	arb.Use(mware.JWTMiddleware)
	arb.Use(mware.ArbiterGuard)

	arb.GET("/orders/:id", marketplace.GetOrder)
	arb.GET("/orders/:id/timeline", marketplace.GetTimeline)
	arb.POST("/orders/:id/resolve", marketplace.ResolveDispute)

	// Start server
	if err := e.Start(cfg.HTTP.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
