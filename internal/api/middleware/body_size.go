package middleware

import (
	"fmt"
	"net/http"

	"recipe-parser/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BodySizeLimit 限制請求體大小，照片以 base64 傳入時最容易超過
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			common.LogWarn("Request body too large",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Error:   common.ErrCodeInvalidInput,
				Details: fmt.Sprintf("request body exceeds %d bytes", maxSize),
			})
			return
		}

		// Content-Length 未提供時由 MaxBytesReader 在讀取時截斷
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
