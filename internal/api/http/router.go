package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-saaty/infrastructure/middleware"
)

// RouterConfig carries the HTTP-surface settings the router needs.
type RouterConfig struct {
	// ServiceName and Version appear in health responses.
	ServiceName string
	Version     string

	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string

	// RateLimitRPS and RateLimitBurst bound each client's request rate
	// on the analysis routes. A non-positive RPS disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// BuildRouter assembles the Gin engine: recovery, request IDs, request
// logging, CORS, health and metrics endpoints, and the rate-limited
// analysis routes under /api/v1/ahp.
func BuildRouter(cfg RouterConfig, handler *Handler, health *HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	health.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1/ahp")
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		api.Use(limiter.Middleware())
	}
	handler.Register(api)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.RequestIDHeader)
	cfg.ExposeHeaders = append(cfg.ExposeHeaders, middleware.RequestIDHeader)
	return cfg
}
