package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"recipe-parser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultDedupWindow = time.Second

// Deduplicator 短時間內相同的解析請求只處理一次
// 同一網址或同一張照片重複送出時，避免重複抓取與推論
type Deduplicator struct {
	mu       sync.Mutex
	window   time.Duration
	requests map[string]time.Time
	now      func() time.Time
}

// NewDeduplicator 建立去重器，window <= 0 時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Run 定期清除過期指紋，直到 ctx 結束
func (d *Deduplicator) Run(ctx context.Context) {
	ticker := time.NewTicker(10 * d.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *Deduplicator) sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, t := range d.requests {
		if now.Sub(t) > d.window {
			delete(d.requests, k)
		}
	}
}

// seen 記錄指紋並回傳是否在時間窗內重複
func (d *Deduplicator) seen(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 只處理 POST 請求，以路徑與請求體雜湊作為指紋
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogWarn("Failed to read request body", zap.Error(err))
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		fingerprint := c.Request.URL.Path + ":" + c.ClientIP() + ":" + hex.EncodeToString(hash[:])

		if d.seen(fingerprint) {
			common.LogInfo("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Error:   common.ErrCodeTooManyRequests,
				Details: "duplicate request, please wait before retrying",
			})
			return
		}
		c.Next()
	}
}
