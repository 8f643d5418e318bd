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

	"github.com/SAP-F-2025/lesson-service/internal/cache"
	"github.com/SAP-F-2025/lesson-service/internal/config"
	"github.com/SAP-F-2025/lesson-service/internal/handlers"
	"github.com/SAP-F-2025/lesson-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-service/internal/observability"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/internal/repositories/memory"
	"github.com/SAP-F-2025/lesson-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lesson-service/internal/repositories/redisstore"
	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/SAP-F-2025/lesson-service/internal/utils"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
	"github.com/SAP-F-2025/lesson-service/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lesson-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	slogger := utils.ToSlogLogger(logger)

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to init zap logger: %w", err)
	}
	defer zapLogger.Sync()

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.Tracing, cfg.Environment, slogger)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.LogError(err, "Failed to flush traces")
		}
	}()

	// Postgres
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.MigrateDatabase(db); err != nil {
		return err
	}

	// Redis
	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var sessionStore repositories.SessionStore
	switch cfg.SessionStore {
	case "memory":
		logger.Warn("Using in-process session store, sessions are lost on restart")
		sessionStore = memory.NewSessionMemory(cfg.SessionTTL)
	default:
		sessionStore = redisstore.NewSessionRedis(redisClient, cfg.SessionTTL, zapLogger)
	}

	// Events
	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()

	serviceManager := services.NewServiceManager(
		postgres.NewChallengePostgreSQL(db),
		sessionStore,
		cache.NewRedisCache(redisClient, zapLogger),
		cfg.CacheTTL,
		publisher,
		slogger,
		validator.New(),
	)

	var tokenParser handlers.TokenParser
	if cfg.Auth.Enabled {
		tokenParser = handlers.CasdoorTokenParser(cfg.Auth)
	} else {
		logger.Warn("Authentication disabled, trusting the X-Learner-ID and X-Learner-Role headers")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID", "X-Learner-ID", "X-Learner-Role"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(serviceManager, tokenParser, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting lesson service", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down lesson service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
