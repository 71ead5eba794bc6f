package recipe

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"recipe-parser/internal/api/middleware"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// getRequestID 取得 requestid 中間件產生的 ID，未掛載時自行產生
func getRequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	id := common.GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// getImageType 獲取圖片類型（用於日誌記錄）
func getImageType(image string) string {
	if image == "" {
		return "empty"
	}
	if strings.HasPrefix(image, "data:image/") {
		parts := strings.SplitN(image, ";base64,", 2)
		if len(parts) == 2 {
			return "base64_data_uri_" + strings.TrimPrefix(parts[0], "data:image/")
		}
		return "invalid_data_uri"
	}
	if _, err := base64.StdEncoding.DecodeString(image); err == nil {
		return "base64"
	}
	return "unknown_format"
}

// writeFailure 設定錯誤類型、狀態碼與限流時的 Retry-After
func writeFailure(c *gin.Context, outcome *common.ParseOutcome, body interface{}) {
	c.Set(middleware.ContextKeyErrorKind, outcome.ErrorKind)
	if outcome.RetryAfterEpochMs > 0 {
		wait := time.Until(time.UnixMilli(outcome.RetryAfterEpochMs))
		secs := int(math.Ceil(wait.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", fmt.Sprintf("%d", secs))
	}
	c.JSON(common.StatusFor(outcome.ErrorKind, outcome.Timeout), body)
}
