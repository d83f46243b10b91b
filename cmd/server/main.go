package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"scout.app/research/common/id"
	"scout.app/research/common/logger"
	"scout.app/research/common/otel"
	"scout.app/research/core/config"
	"scout.app/research/internal/http/middleware"
	httprouter "scout.app/research/internal/http/router"
	"scout.app/research/internal/runner"
	"scout.app/research/internal/service"
	"scout.app/research/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "scout starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	registry, cleanup, err := setupRegistry(ctx, cfg.Registry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up job registry", "error", err)
		os.Exit(1)
	}
	defer cleanup()
	slog.InfoContext(ctx, "job registry ready", "backend", cfg.Registry.Backend)

	jobRunner := runner.New(cfg.Runner.MaxConcurrentJobs)

	factory := service.NewClientFactory(cfg.LLM, cfg.Firecrawl)
	researchService := service.NewResearchService(registry, jobRunner, factory)

	// Keys from the environment configure clients at startup; /configure can
	// still replace them at runtime.
	if cfg.LLM.Enabled() && cfg.Firecrawl.Enabled() {
		if err := researchService.Configure(ctx, cfg.LLM.APIKey, cfg.Firecrawl.APIKey); err != nil {
			slog.ErrorContext(ctx, "failed to configure clients from environment", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "research clients configured from environment", "provider", cfg.LLM.Provider)
	} else {
		slog.InfoContext(ctx, "research clients not configured, waiting for /configure")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, researchService)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	// Let in-flight research jobs reach a terminal state before the registry
	// connections close.
	jobRunner.Wait()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRegistry(ctx context.Context, cfg config.RegistryConfig) (store.Registry, func(), error) {
	switch cfg.Backend {
	case config.RegistryBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client), func() { _ = client.Close() }, nil

	case config.RegistryBackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		poolCfg.MaxConns = cfg.MaxConns
		poolCfg.MinConns = cfg.MinConns
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, err
		}
		registry, err := store.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return registry, pool.Close, nil

	default:
		return store.NewMemory(), func() {}, nil
	}
}

func setupRouter(cfg config.Config, researchService service.ResearchService) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, researchService)

	return router
}
