package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthResponse reports service liveness and the reachability of the
// run store backend.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store,omitempty"`
}

// HealthHandler answers health probes. When a Redis client is
// configured it pings the backend with a short deadline so the probe
// reflects store reachability without hanging the check.
type HealthHandler struct {
	serviceName string
	version     string
	redis       *redis.Client
}

// NewHealthHandler creates a HealthHandler. A nil client marks the
// store as disabled rather than down.
func NewHealthHandler(serviceName, version string, client *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		redis:       client,
	}
}

// HealthCheck reports the service status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "disabled"
	if h.redis != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			storeStatus = "down"
		} else {
			storeStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     storeStatus,
	})
}

// RegisterRoutes registers the health endpoints.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
