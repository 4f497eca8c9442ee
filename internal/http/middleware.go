package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

func withRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func withLogging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

func withRecovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic", zap.Any("recovered", rec), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			}
		}()
		c.Next()
	}
}

func withRateLimit(perMin int, clock clockwork.Clock) gin.HandlerFunc {
	if perMin <= 0 {
		perMin = 120
	}
	lim := newRateLimiter(perMin, clock)
	return func(c *gin.Context) {
		// ClientIP only honours forwarding headers from trusted proxies.
		if !lim.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
			return
		}
		c.Next()
	}
}

// rateLimiter counts requests per client in fixed one-minute windows. All
// counters drop together when a window closes.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	clock  clockwork.Clock
	start  time.Time
	counts map[string]int
}

func newRateLimiter(limit int, clock clockwork.Clock) *rateLimiter {
	return &rateLimiter{limit: limit, clock: clock, counts: make(map[string]int)}
}

func (l *rateLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	if now.Sub(l.start) >= time.Minute {
		l.start = now
		l.counts = make(map[string]int)
	}
	if l.counts[client] >= l.limit {
		return false
	}
	l.counts[client]++
	return true
}
