package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/auth"
	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/brandonhuynh1/eventwish-api/internal/database"
	"github.com/brandonhuynh1/eventwish-api/internal/handlers"
	"github.com/brandonhuynh1/eventwish-api/internal/metrics"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/brandonhuynh1/eventwish-api/internal/utils"
	"github.com/brandonhuynh1/eventwish-api/pkg/firebase"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// pingFunc adapts a ping method to handlers.Pinger
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		logger.Warn().Msg(".env file not found, using environment variables")
	}
	logger.Info().Str("environment", cfg.Environment).Msg("Starting EventWish API")

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.Info().Msg("Running in development mode")
	}

	// Initialize database connections
	logger.Info().Msg("Connecting to PostgreSQL")
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	// Run database migrations
	logger.Info().Msg("Running database migrations")
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize Redis
	logger.Info().Msg("Connecting to Redis")
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	verifier, err := newVerifier(cfg.Auth, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Firebase")
	}

	// Initialize repositories
	templateRepo := repository.NewTemplateRepository(db)
	iconRepo := repository.NewCategoryIconRepository(db)
	userRepo := repository.NewUserRepository(db)
	coinsRepo := repository.NewCoinsRepository(db)
	adUnitRepo := repository.NewAdUnitRepository(db)
	wishRepo := repository.NewSharedWishRepository(db)

	// Initialize services
	templateService := services.NewTemplateService(templateRepo, iconRepo, redisClient, logger)
	recommendationService := services.NewRecommendationService(userRepo, templateService, redisClient, cfg.Recommendation, logger)
	userService := services.NewUserService(userRepo, templateService, recommendationService, logger)
	iconService := services.NewCategoryIconService(iconRepo, logger)
	adUnitService := services.NewAdUnitService(adUnitRepo, logger)
	coinsService := services.NewCoinsService(coinsRepo, adUnitRepo, redisClient, cfg.Coins, logger)
	wishService := services.NewWishService(wishRepo, templateRepo, cfg.Wishes, logger)

	m := metrics.New(db)
	coinsService.OnEvent(m.CoinEvent)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	router.Use(m.Middleware())

	authCfg := handlers.AuthConfig{
		Verifier:       verifier,
		AllowUIDHeader: cfg.Auth.SkipAuth,
		Roles:          auth.NewRoles(cfg.Admin),
	}

	// Register routes
	logger.Info().Msg("Registering routes")
	router.GET("/metrics", m.Handler())
	handlers.RegisterHealthHandlers(router, map[string]handlers.Pinger{
		"database": pingFunc(db.PingContext),
		"redis":    redisClient,
	}, logger)
	handlers.RegisterTemplateHandlers(router, templateService, recommendationService, logger)
	handlers.RegisterCategoryIconHandlers(router, iconService, logger)
	handlers.RegisterUserHandlers(router, userService, authCfg, logger)
	handlers.RegisterCoinsHandlers(router, coinsService, redisClient, logger)
	handlers.RegisterWishHandlers(router, wishService, logger)
	handlers.RegisterAdminHandlers(router, templateService, iconService, adUnitService, authCfg, logger)

	// Setup server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Msgf("Starting server on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.GracefulShutdownSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exiting")
}

// newVerifier returns the Firebase verifier, or a locally signed token
// verifier when auth is skipped in development
func newVerifier(cfg config.AuthConfig, logger zerolog.Logger) (auth.Verifier, error) {
	if cfg.SkipAuth {
		logger.Warn().Msg("SKIP_AUTH enabled, accepting development tokens and x-firebase-uid")
		return auth.NewDevVerifier(cfg.JWTSecret), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := firebase.NewClient(ctx, firebase.Credentials{
		ProjectID: cfg.FirebaseProjectID,
		JSON:      cfg.FirebaseServiceAccount,
		File:      cfg.FirebaseCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "x-firebase-uid"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
