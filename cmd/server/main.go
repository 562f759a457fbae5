package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getmeachai/backend/internal/config"
	"github.com/getmeachai/backend/internal/handler"
	appMiddleware "github.com/getmeachai/backend/internal/middleware"
	"github.com/getmeachai/backend/internal/repository"
	"github.com/getmeachai/backend/internal/service"
	"github.com/getmeachai/backend/pkg/payment"
	"github.com/getmeachai/backend/pkg/signature"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	// Repositories
	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Payment gateway
	var gateway payment.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		log.Println("✅ Razorpay gateway configured")
	} else {
		log.Println("⚠️  Razorpay credentials missing, using mock gateway (checkout orders are local-only)")
		gateway = payment.NewMockGateway()
	}

	// Services
	notifier := service.NewStoreNotifier(notifRepo)
	reconciler := service.NewReconciler(paymentRepo, subRepo, notifier)
	checkoutSvc := service.NewCheckoutService(paymentRepo, gateway, cfg.RazorpayKeyID)

	// Signature verifiers: webhook bodies and checkout callbacks use separate
	// secrets, both fail closed in production when unset.
	webhookVerifier := signature.NewWebhookVerifier(cfg.RazorpayWebhookSecret, cfg.Production())
	checkoutVerifier := signature.NewCheckoutVerifier(cfg.RazorpayKeySecret, cfg.Production())

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	webhookHandler := handler.NewWebhookHandler(webhookVerifier, checkoutVerifier, reconciler, eventRepo)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	dashboardHandler := handler.NewDashboardHandler(paymentRepo, campaignRepo, creatorRepo)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Health check and public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Post("/api/checkout", checkoutHandler.Create)

	// Webhook endpoint: the gateway retries aggressively, so it gets its own
	// burst-tolerant limit.
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.WebhookRateLimiter())
		r.Post("/webhook", webhookHandler.Handle)
	})

	// Creator dashboard reads (JWT issued by the web app)
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(cfg.JWTSecret))
		r.Get("/api/payments", dashboardHandler.ListPayments)
		r.Get("/api/me/stats", dashboardHandler.CreatorStats)
		r.Get("/api/campaigns/{id}/stats", dashboardHandler.CampaignStats)
	})

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 Get Me a Chai reconciler listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}
