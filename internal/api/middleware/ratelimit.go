package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/satohidetada/my-flea-app/internal/config"
)

const (
	clientIdleTTL   = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// clientLimiter stores the token bucket for one client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware applies a per-client token bucket to every request.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewRateLimiterMiddleware creates a rate limiter from the configured bucket size
// and refill rate. Call Run to evict idle clients in the background.
func NewRateLimiterMiddleware(cfg *config.Config, log logrus.FieldLogger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(cfg.RateLimitRefillRate),
		burst:   cfg.RateLimitBucketSize,
		log:     log,
		now:     time.Now,
	}
}

// clientKey identifies the caller. Authenticated requests are keyed by actor,
// anonymous ones by IP.
func clientKey(c *gin.Context) string {
	if actor, ok := ActorFromContext(c); ok {
		return "user:" + actor.ID.String()
	}
	return "ip:" + c.ClientIP()
}

func (rm *RateLimiterMiddleware) getClientLimiter(key string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.limit, rm.burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = rm.now()
	return cl
}

// Evict removes clients not seen since the idle TTL and returns how many were dropped.
func (rm *RateLimiterMiddleware) Evict() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for key, cl := range rm.clients {
		if rm.now().Sub(cl.lastSeen) > clientIdleTTL {
			delete(rm.clients, key)
			count++
		}
	}
	return count
}

// Run evicts idle clients periodically until done is closed.
func (rm *RateLimiterMiddleware) Run(done <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := rm.Evict(); n > 0 {
				rm.log.WithField("evicted", n).Debug("Rate limiter cleanup removed idle clients")
			}
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		if !rm.getClientLimiter(key).limiter.Allow() {
			rm.log.WithFields(logrus.Fields{"client": key, "path": c.FullPath()}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
