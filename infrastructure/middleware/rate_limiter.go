package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// defaultClientIdle is how long a client's token bucket survives without
// traffic before the periodic sweep reclaims it.
const defaultClientIdle = 3 * time.Minute

// ClientRateLimiter throttles requests per client using token buckets.
// Each client (keyed by IP) gets an independent bucket refilled at the
// configured rate; idle buckets are swept periodically so the map does
// not grow without bound under churning client populations.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter creates a rate limiter allowing rps requests per
// second with the given burst per client. Non-positive inputs fall back
// to a permissive single-request-per-second bucket rather than locking
// every client out.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientRateLimiter{
		clients:   make(map[string]*clientBucket),
		rps:       rate.Limit(rps),
		burst:     burst,
		idle:      defaultClientIdle,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the identified client may proceed, consuming one
// token from its bucket when it may.
func (rl *ClientRateLimiter) Allow(clientID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	bucket, ok := rl.clients[clientID]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[clientID] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.Allow()
}

// Middleware adapts the limiter to Gin, rejecting over-limit clients
// with 429 before the handler runs.
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// sweep drops buckets idle past the horizon. Callers must hold the lock.
// Sweeps run at most once per idle period so steady traffic pays no
// per-request scan.
func (rl *ClientRateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idle {
		return
	}
	rl.lastSweep = now
	for id, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > rl.idle {
			delete(rl.clients, id)
		}
	}
}
