package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter membatasi request per IP dengan token bucket yang hidup
// sepanjang umur proses. Limiter per IP dibuat lazy saat request pertama
// dan dipakai ulang di request berikutnya.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perSecond, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// NewStrictRateLimiter -> limiter ketat untuk login/register: burst 10,
// refill 10 per menit per IP.
func NewStrictRateLimiter() gin.HandlerFunc {
	rl := &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Every(6 * time.Second),
		burst:    10,
	}
	return rl.RateLimit()
}

// limiterFor -> token bucket milik satu IP, dibuat kalau belum ada.
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.visitors[ip] = limiter
	}
	return limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Terlalu banyak percobaan, silakan tunggu beberapa saat",
			})
			return
		}
		c.Next()
	}
}
