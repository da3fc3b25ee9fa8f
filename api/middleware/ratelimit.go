package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tradewithedge/tickersnap/models"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-client token bucket. Clients are identified by
// API key when present, otherwise by IP address. Idle limiters are evicted
// in the background.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*limiterEntry)
	)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			for id, entry := range limiters {
				if time.Since(entry.lastSeen) > time.Hour {
					delete(limiters, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		identity := c.GetString("api_key")
		if identity == "" {
			identity = c.ClientIP()
		}

		mu.Lock()
		entry, ok := limiters[identity]
		if !ok {
			entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			limiters[identity] = entry
		}
		entry.lastSeen = time.Now()
		mu.Unlock()

		if !entry.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, slow down",
				},
			})
			return
		}

		c.Next()
	}
}
