package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	apperrors "countdown/backend/internal/errors"
)

// maxTrackedClients bounds the per-client limiters kept in memory. The least
// recently seen client is forgotten first and starts over with a full bucket.
const maxTrackedClients = 4096

type clientLimiters struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	cache *lru.Cache[string, *rate.Limiter]
}

func newClientLimiters(rps float64, burst int, size int) *clientLimiters {
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		cache, _ = lru.New[string, *rate.Limiter](maxTrackedClients)
	}
	return &clientLimiters{limit: rate.Limit(rps), burst: burst, cache: cache}
}

func (l *clientLimiters) get(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.cache.Get(client); ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.cache.Add(client, limiter)
	return limiter
}

// RateLimit rejects requests beyond rps with a burst allowance, counted per
// client IP. A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiters := newClientLimiters(rps, burst, maxTrackedClients)

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			writeError(c, apperrors.TooManyRequests(""))
			return
		}
		c.Next()
	}
}
