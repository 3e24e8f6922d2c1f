// Command server runs the analysis engine behind an HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-saaty/config"
	"github.com/ahrav/go-saaty/infrastructure/middleware"
	"github.com/ahrav/go-saaty/infrastructure/store"
	httpapi "github.com/ahrav/go-saaty/internal/api/http"
	"github.com/ahrav/go-saaty/internal/application"
	"github.com/ahrav/go-saaty/internal/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var redisClient *redis.Client
	var resultStore ports.ResultStore
	var cacheStore ports.CacheStore

	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("failed to close redis client: %v", err)
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to reach redis at %s: %v", cfg.Redis.Addr, err)
		}

		redisStore, err := store.NewRedisResultStore(redisClient)
		if err != nil {
			log.Fatalf("failed to create result store: %v", err)
		}
		redisStore.SetReportTTL(cfg.Engine.ReportTTL)
		resultStore = redisStore

		redisCache, err := store.NewRedisCacheStore(redisClient)
		if err != nil {
			log.Fatalf("failed to create cache store: %v", err)
		}
		cacheStore = redisCache

		log.Printf("using redis stores at %s", cfg.Redis.Addr)
	} else {
		resultStore = store.NewMemoryResultStore()
		cacheStore = store.NewMemoryCacheStore()
		log.Println("redis disabled, using in-memory stores")
	}

	registry := application.NewDefaultAnalyzerRegistry()
	analyzer, err := registry.CreateAnalyzer(
		cfg.Engine.SolverType, "eigensolver", cfg.Engine.SolverParameters())
	if err != nil {
		log.Fatalf("failed to create solver %s: %v", cfg.Engine.SolverType, err)
	}
	// The tracer provider defaults to a no-op; spans only leave the
	// process when a deployment installs an exporter.
	analyzer, err = middleware.NewTracingAnalyzer(analyzer)
	if err != nil {
		log.Fatalf("failed to wrap solver with tracing: %v", err)
	}

	engine, err := application.NewAnalysisEngine(
		analyzer, resultStore, cacheStore, middleware.NewPrometheusMetrics())
	if err != nil {
		log.Fatalf("failed to create analysis engine: %v", err)
	}
	if cfg.Engine.Concurrency > 0 {
		engine.SetConcurrencyLimit(cfg.Engine.Concurrency)
	}
	engine.SetCacheTTL(cfg.Engine.CacheTTL)

	handler, err := httpapi.NewHandler(engine, analyzer, resultStore)
	if err != nil {
		log.Fatalf("failed to create handler: %v", err)
	}
	health := httpapi.NewHealthHandler(cfg.App.ServiceName, cfg.App.Version, redisClient)

	router := httpapi.BuildRouter(httpapi.RouterConfig{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, handler, health)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("%s %s listening on :%s (solver=%s)",
			cfg.App.ServiceName, cfg.App.Version, cfg.Server.Port, analyzer.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
