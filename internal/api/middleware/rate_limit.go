package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"recipe-parser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now
	rl.tokens = math.Min(rl.capacity, rl.tokens+elapsed*rl.rate)

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// RateLimit 每個來源 IP 各自一個令牌桶
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*RateLimiter)

	limiterFor := func(ip string) *RateLimiter {
		mu.Lock()
		defer mu.Unlock()
		rl, ok := limiters[ip]
		if !ok {
			rl = NewRateLimiter(requests, window)
			limiters[ip] = rl
		}
		return rl
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(window.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Error:   common.ErrCodeTooManyRequests,
				Details: "too many requests",
			})
			return
		}
		c.Next()
	}
}
