package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/clock"
	"github.com/vastra/storefront/internal/config"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/handler"
	"github.com/vastra/storefront/internal/middleware"
	"github.com/vastra/storefront/internal/repository/postgres"
	"github.com/vastra/storefront/internal/repository/redis"
	"github.com/vastra/storefront/internal/repository/storage"
	"github.com/vastra/storefront/internal/service"
	"github.com/vastra/storefront/internal/token"
	"github.com/vastra/storefront/internal/websocket"
	"go.opentelemetry.io/otel"
)

// @title Vastra Storefront API
// @version 1.0
// @description REST backend for the Vastra saree storefront.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Telemetry
	tp, err := initTracerProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracer provider")
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to shut down tracer provider")
			}
		}()
		log.Info().Str("exporter", cfg.TracesExporter).Msg("Exporting traces")
	}

	mp, err := initMeterProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize meter provider")
	}
	if mp != nil {
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to shut down meter provider")
			}
		}()
	}
	httpMetrics, err := newHTTPMetrics(otel.Meter(instrumentationName))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create HTTP metrics")
	}

	// Connect to database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	wishlistRepo := postgres.NewWishlistRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)

	healthChecks := map[string]handler.Pinger{"postgres": pool}

	var cartRepo domain.CartRepository
	switch cfg.CartStore {
	case "redis":
		client := redis.NewClient(cfg.RedisURL)
		defer client.Close()
		redisCarts := redis.NewCartRepository(client, clock.RealClock{})
		if err := redisCarts.Initialize(ctx, 5); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		cartRepo = redisCarts
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	default:
		cartRepo = postgres.NewCartRepository(pool)
	}
	log.Info().Str("store", cfg.CartStore).Msg("Cart storage selected")

	// Image storage is optional; uploads answer 503 without it
	var imageStore storage.ImageRepository
	if s3Repo, err := storage.NewS3ImageRepository(ctx, cfg.S3); err != nil {
		log.Warn().Err(err).Msg("S3 storage unavailable, product image upload disabled")
	} else {
		imageStore = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 storage initialized")
	}

	// Tokens
	issuer, err := token.NewIssuer(cfg.JWT, clock.RealClock{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token issuer")
	}
	validator, err := token.NewValidator(cfg.JWT)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token validator")
	}

	// Push events
	hub := websocket.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, issuer, cfg.JWT.RefreshTTL, clock.RealClock{})
	productService := service.NewProductService(productRepo, categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	imageService := service.NewImageService(imageStore, productRepo)
	productService.SetImageRemover(imageService)
	cartService := service.NewCartService(cartRepo, productRepo)
	cartService.SetEventPublisher(hub)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	wishlistService.SetEventPublisher(hub)
	addressService := service.NewAddressService(addressRepo)
	addressService.SetEventPublisher(hub)

	sweeper := service.NewTokenSweeper(refreshTokenRepo, clock.RealClock{}, log.Logger, cfg.TokenSweepInterval)
	sweeper.Start(ctx)

	authMiddleware := middleware.NewAuthMiddleware(validator)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit.RequestsPerMinute, cfg.AuthRateLimit.Burst)
	defer authLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Server spans and request metrics
	e.Use(telemetryMiddleware(otel.Tracer(instrumentationName), httpMetrics))

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, authLimiter, handler.Handlers{
		Health:    handler.NewHealthHandler(healthChecks),
		Auth:      handler.NewAuthHandler(authService),
		Cart:      handler.NewCartHandler(cartService),
		Wishlist:  handler.NewWishlistHandler(wishlistService),
		Address:   handler.NewAddressHandler(addressService),
		Product:   handler.NewProductHandler(productService),
		Category:  handler.NewCategoryHandler(categoryService),
		Image:     handler.NewImageHandler(imageService),
		WebSocket: handler.NewWebSocketHandler(hub, websocket.NewAccessTokenValidator(validator), cfg.CORSOrigins),
	})

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	// Close push connections first so Shutdown does not wait on them
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
