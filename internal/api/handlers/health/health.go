package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-parser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Extractor ExtractorStatus        `json:"extractor"`
}

// ExtractorStatus 萃取能力
type ExtractorStatus struct {
	AIConfigured bool   `json:"ai_configured"`
	Model        string `json:"model,omitempty"`
	CacheBackend string `json:"cache_backend,omitempty"`
}

// Handler 健康檢查
type Handler struct {
	version string
	status  ExtractorStatus
}

// NewHandler 建立健康檢查 handler
func NewHandler(version string, status ExtractorStatus) *Handler {
	return &Handler{version: version, status: status}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Extractor: h.status,
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：沒有 AI 金鑰仍可用結構化資料與啟發式解析，因此只回報狀態
func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"ai_configured": h.status.AIConfigured,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
