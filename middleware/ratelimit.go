package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"inmoback/utils"
)

type tokenBucket struct {
	tokens     int
	capacity   int
	refillRate time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

func newTokenBucket(capacity int, refillRate time.Duration) *tokenBucket {
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed >= tb.refillRate {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

type rateLimiter struct {
	visitors map[string]*visitor
	mutex    sync.Mutex
	rate     time.Duration
	burst    int
}

type visitor struct {
	bucket   *tokenBucket
	lastSeen time.Time
}

func newRateLimiter(rate time.Duration, burst int) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		burst:    burst,
	}
	go rl.cleanupVisitors()
	return rl
}

func (rl *rateLimiter) getVisitor(ip string) *tokenBucket {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{bucket: newTokenBucket(rl.burst, rl.rate)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.bucket
}

func (rl *rateLimiter) cleanupVisitors() {
	for range time.Tick(10 * time.Minute) {
		rl.mutex.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 30*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mutex.Unlock()
	}
}

// RateLimitMiddleware limits each client IP to a fixed request budget per
// minute.
func RateLimitMiddleware() gin.HandlerFunc {
	limiter := newRateLimiter(time.Minute, 300)

	return func(c *gin.Context) {
		if !limiter.getVisitor(c.ClientIP()).allow() {
			utils.ErrorResponse(c, 429, "rate_limited", "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
