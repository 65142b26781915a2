package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/cache"
	"github.com/appforge/ai-engine/internal/config"
	"github.com/appforge/ai-engine/internal/database"
	"github.com/appforge/ai-engine/internal/eventbus"
	"github.com/appforge/ai-engine/internal/gate"
	"github.com/appforge/ai-engine/internal/handlers"
	"github.com/appforge/ai-engine/internal/metrics"
	"github.com/appforge/ai-engine/internal/middleware"
	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/orchestrator"
	"github.com/appforge/ai-engine/internal/pipeline"
	"github.com/appforge/ai-engine/internal/provider"
	"github.com/appforge/ai-engine/internal/ratelimit"
	"github.com/appforge/ai-engine/internal/store"
	"github.com/appforge/ai-engine/internal/telemetry"
	"github.com/appforge/ai-engine/internal/validator"
	"github.com/appforge/ai-engine/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("AppForge AI engine starting",
		zap.String("version", "0.1.0"),
		zap.String("environment", cfg.Environment),
	)

	if cfg.TracingEnabled {
		shutdownTelemetry, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.Environment)
		if err != nil {
			// Collector may be down; tracing is not worth refusing to boot
			logger.Error("failed to initialize telemetry", zap.Error(err))
		} else {
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					logger.Error("failed to shutdown telemetry", zap.Error(err))
				}
			}()
		}
	}

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	bus, err := eventbus.Connect(cfg.NATSURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to nats", zap.Error(err))
	}
	defer bus.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New(registry)

	canvas := models.Canvas{
		Width:          cfg.CanvasWidth,
		Height:         cfg.CanvasHeight,
		SafeAreaTop:    cfg.SafeAreaTop,
		SafeAreaBottom: cfg.SafeAreaBottom,
	}

	// Tier chain, best first. The heuristic tier has no breaker: it
	// cannot fail, and the chain's forward progress depends on it.
	newBreaker := func(tier models.TierID) *orchestrator.CircuitBreaker {
		cb := orchestrator.NewCircuitBreaker(cfg.BreakerFailureThreshold, cfg.BreakerCooldown)
		cb.OnStateChange = func(from, to orchestrator.CircuitState) {
			logger.Warn("circuit state change",
				zap.String("tier", string(tier)),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			engineMetrics.CircuitState.WithLabelValues(string(tier)).Set(float64(to))
		}
		return cb
	}
	tiers := []orchestrator.Tier{
		{
			Provider: provider.NewClaudeTier(cfg.ClaudeAPIURL, cfg.ClaudeAPIKey, cfg.ClaudeModel, logger),
			Breaker:  newBreaker(models.TierClaude),
			Policy:   orchestrator.DefaultRetryPolicy(),
		},
		{
			Provider: provider.NewGroqTier(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqModel, logger),
			Breaker:  newBreaker(models.TierGroq),
			Policy:   orchestrator.DefaultRetryPolicy(),
		},
		{
			Provider: provider.NewHeuristicTier(logger),
			Policy:   orchestrator.RetryPolicy{MaxAttempts: 1},
		},
	}
	orch := orchestrator.New(tiers, cfg.AggregateFailureLimit, cfg.AggregateFailureWindow, logger)

	dataStore := store.New(db, logger)
	resultCache := cache.New(rdb, cfg.CacheTTL, logger)
	limiter := ratelimit.New(cfg.RateLimitPerHour, cfg.RateLimitPerHour, time.Hour)

	stages := &pipeline.Stages{
		Orchestrator: orch,
		Gate:         gate.New(cfg.ClarificationThreshold, cfg.BlockDangerousThreshold, logger),
		Graph:        validator.NewGraphValidator(),
		Geometry:     validator.NewGeometryValidator(canvas),
		Resolver:     validator.NewCollisionResolver(canvas),
		Logic:        validator.NewLogicValidator(),
		Canvas:       canvas,
		Store:        dataStore,
		Cache:        resultCache,
		Metrics:      engineMetrics,
		Logger:       logger,
	}
	engine := pipeline.NewEngine(stages.Build(), bus, engineMetrics, logger)

	w := worker.New(bus, engine, resultCache, limiter, engineMetrics, cfg.MaxConcurrentTasks, logger)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	healthHandler := handlers.NewHealthHandler(db, rdb, orch)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.DeepHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	statsHandler := handlers.NewStatsHandler(orch, resultCache)
	taskHandler := handlers.NewTaskHandler(bus, limiter, logger)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", statsHandler.Stats)
		v1.POST("/tasks", taskHandler.Submit)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	cancel()
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
