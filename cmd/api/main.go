package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lumadrop/coupon-distributor/internal/config"
	"github.com/lumadrop/coupon-distributor/internal/handler"
	"github.com/lumadrop/coupon-distributor/internal/identity"
	"github.com/lumadrop/coupon-distributor/internal/metrics"
	"github.com/lumadrop/coupon-distributor/internal/repository"
	"github.com/lumadrop/coupon-distributor/internal/service"
	"github.com/lumadrop/coupon-distributor/internal/validator"
	"github.com/lumadrop/coupon-distributor/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Register Prometheus collectors before serving traffic
	metrics.MustRegister()

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Distributor",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB body limit
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	// Claim-allocation core
	eligibility := service.NewEligibilityChecker(settingsRepo, claimRepo)
	allocator := service.NewAllocator(couponRepo, settingsRepo)
	distribution := service.NewDistributionService(eligibility, allocator, claimRepo)
	admin := service.NewAdminService(couponRepo, claimRepo, settingsRepo)

	// Handlers
	resolver := identity.NewResolver(cfg.Identity)
	claimHandler := handler.NewClaimHandler(distribution, resolver)
	couponHandler := handler.NewCouponHandler(admin, validate)
	historyHandler := handler.NewHistoryHandler(admin)
	settingsHandler := handler.NewSettingsHandler(admin, validate)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Visitor-facing claim flow
	app.Post("/api/claim", claimHandler.Claim)

	// Admin surface. Authentication is delegated to an identity-aware proxy
	// in front of this service.
	adminAPI := app.Group("/api/admin")
	adminAPI.Get("/coupons", couponHandler.ListCoupons)
	adminAPI.Post("/coupons", couponHandler.CreateCoupon)
	adminAPI.Put("/coupons/:id", couponHandler.UpdateCoupon)
	adminAPI.Patch("/coupons/:id/active", couponHandler.SetActive)
	adminAPI.Delete("/coupons/:id", couponHandler.DeleteCoupon)
	adminAPI.Get("/claims", historyHandler.List)
	adminAPI.Get("/settings", settingsHandler.Get)
	adminAPI.Put("/settings", settingsHandler.Update)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
