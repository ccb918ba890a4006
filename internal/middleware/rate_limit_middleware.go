package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit returns a per-client-IP limiter allowing perMinute requests with
// an equal burst. Clients over the limit get 429 with rate headers.
func RateLimit(perMinute int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
			limiters[ip] = l
		}
		return l
	}

	return func(c *gin.Context) {
		l := limiterFor(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		if !l.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(l.Tokens())))

		c.Next()
	}
}
