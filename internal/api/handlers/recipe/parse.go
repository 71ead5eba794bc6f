package recipe

import (
	"context"
	"net/http"

	"recipe-parser/internal/api/middleware"
	recipeService "recipe-parser/internal/core/recipe"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Parser 食譜解析流程
type Parser interface {
	ParseFromURL(ctx context.Context, pageURL string) *common.ParseOutcome
	ParseFromHTML(ctx context.Context, rawHTML string) *common.ParseOutcome
	ParseFromImage(ctx context.Context, imageData string) *common.ParseOutcome
}

// ParseURLRequest 以網址解析
type ParseURLRequest struct {
	URL string `json:"url"`
}

// ParseHTMLRequest 以原始 HTML 解析，url 僅用於標記來源
type ParseHTMLRequest struct {
	HTML string `json:"html" binding:"required"`
	URL  string `json:"url,omitempty"`
}

// ParseImageRequest 以照片解析
// image: base64 或 data URI
type ParseImageRequest struct {
	Image string `json:"image" binding:"required"`
}

// Handler 食譜解析 API
type Handler struct {
	parser Parser
}

// NewHandler 建立解析 handler
func NewHandler(parser Parser) *Handler {
	return &Handler{parser: parser}
}

// HandleParseURL 邊緣函式格式：{url} -> 扁平食譜或 {error, details}
func (h *Handler) HandleParseURL(c *gin.Context) {
	requestID := getRequestID(c)

	var req ParseURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		h.rejectInput(c, "request body must be JSON with a url field")
		return
	}
	if _, err := recipeService.ValidateURL(req.URL); err != nil {
		h.rejectInput(c, err.Error())
		return
	}

	common.LogInfo("開始解析食譜網址",
		zap.String("request_id", requestID),
		zap.String("url", req.URL),
	)

	outcome := h.parser.ParseFromURL(c.Request.Context(), req.URL)
	if !outcome.Success {
		writeFailure(c, outcome, common.ErrorResponse{Error: outcome.ErrorKind, Details: outcome.Error})
		return
	}
	c.JSON(http.StatusOK, recipeService.ToLegacy(outcome.Recipe))
}

// HandleParseHTML 回傳完整的解析結果
func (h *Handler) HandleParseHTML(c *gin.Context) {
	requestID := getRequestID(c)

	var req ParseHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		h.rejectInput(c, "request body must be JSON with an html field")
		return
	}

	common.LogInfo("開始解析食譜 HTML",
		zap.String("request_id", requestID),
		zap.Int("html_length", len(req.HTML)),
	)

	outcome := h.parser.ParseFromHTML(c.Request.Context(), req.HTML)
	if outcome.Success && req.URL != "" {
		if _, err := recipeService.ValidateURL(req.URL); err == nil {
			outcome.Recipe.SourceURL = req.URL
		}
	}
	h.writeOutcome(c, outcome)
}

// HandleParseImage 從照片解析食譜
func (h *Handler) HandleParseImage(c *gin.Context) {
	requestID := getRequestID(c)

	var req ParseImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		h.rejectInput(c, "request body must be JSON with an image field")
		return
	}

	common.LogInfo("開始解析食譜照片",
		zap.String("request_id", requestID),
		zap.String("image_type", getImageType(req.Image)),
		zap.Int("image_length", len(req.Image)),
	)

	h.writeOutcome(c, h.parser.ParseFromImage(c.Request.Context(), req.Image))
}

func (h *Handler) writeOutcome(c *gin.Context, outcome *common.ParseOutcome) {
	if !outcome.Success {
		writeFailure(c, outcome, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) rejectInput(c *gin.Context, details string) {
	c.Set(middleware.ContextKeyErrorKind, common.ErrCodeInvalidInput)
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Error:   common.ErrCodeInvalidInput,
		Details: details,
	})
}
