package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// 限流重試時間額外加上的緩衝
	retryAfterBuffer = 5 * time.Second
)

// ChatRequest 單次推論請求
type ChatRequest struct {
	SystemPrompt string
	Prompt       string
	ImageData    string // data URI 或 base64，空字串代表純文字
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Client OpenRouter API 客戶端
type Client struct {
	config *config.OpenRouterConfig
	client *resty.Client
	now    func() time.Time
}

// NewClient 創建 OpenRouter 客戶端
func NewClient(cfg *config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://recipe-parser.app").
		SetHeader("X-Title", "Recipe Parser")

	return &Client{
		config: cfg,
		client: client,
		now:    time.Now,
	}
}

// GenerateResponse 送出 chat completion 並回傳第一個 choice 的內容
func (c *Client) GenerateResponse(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	messages := make([]map[string]interface{}, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]interface{}{
			"role":    "system",
			"content": req.SystemPrompt,
		})
	}

	msgContent := []map[string]interface{}{
		{
			"type": "text",
			"text": req.Prompt,
		},
	}
	if req.ImageData != "" {
		url := req.ImageData
		if !strings.HasPrefix(url, "data:image/") {
			url = fmt.Sprintf("data:image/jpeg;base64,%s", url)
		}
		msgContent = append(msgContent, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": url,
			},
		})
	}
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": msgContent,
	})

	body := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
	}

	common.LogInfo("Sending request to OpenRouter",
		zap.String("model", model),
		zap.Int("messages", len(messages)),
		zap.Bool("has_image", req.ImageData != ""),
	)

	start := c.now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(model, time.Since(start), err)
		if isTimeout(err) {
			return "", common.NewServiceUnavailableError(fmt.Errorf("OpenRouter request timed out: %w", err))
		}
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if err := c.classify(resp); err != nil {
		common.LogAICall(model, time.Since(start), err)
		return "", err
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Error *struct {
			Message string      `json:"message"`
			Code    interface{} `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w (response: %s)", err, sanitizeResponse(resp.Body()))
	}

	// 部分供應商以 200 回傳錯誤內容
	if result.Error != nil {
		if isUnavailableMessage(result.Error.Message) {
			return "", common.NewServiceUnavailableError(errors.New(result.Error.Message))
		}
		if isRateLimitMessage(result.Error.Message) {
			return "", common.NewRateLimitedError(time.Time{}, errors.New(result.Error.Message))
		}
		return "", fmt.Errorf("OpenRouter API returned error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	if result.Choices[0].FinishReason == "length" {
		common.LogWarn("OpenRouter response truncated by max_tokens",
			zap.String("model", model),
			zap.Int("max_tokens", maxTokens),
		)
	}

	content := result.Choices[0].Message.Content
	common.LogAICall(model, time.Since(start), nil)
	common.LogDebug("OpenRouter response received", zap.Int("content_length", len(content)))

	return content, nil
}

// classify 將非 200 回應轉為對應的錯誤
func (c *Client) classify(resp *resty.Response) error {
	status := resp.StatusCode()
	if status == http.StatusOK {
		return nil
	}

	sanitized := sanitizeResponse(resp.Body())
	common.LogError("AI service returned error status",
		zap.Int("status_code", status),
		zap.String("response", sanitized),
	)

	cause := fmt.Errorf("AI service error (status %d): %s", status, sanitized)
	switch {
	case status == http.StatusTooManyRequests || isRateLimitMessage(sanitized):
		var retryAt time.Time
		if ms := RetryAfterEpochMs(resp.Header(), c.now()); ms > 0 {
			retryAt = time.UnixMilli(ms)
		}
		return common.NewRateLimitedError(retryAt, cause)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout || isUnavailableMessage(sanitized):
		return common.NewServiceUnavailableError(cause)
	default:
		return cause
	}
}

// RetryAfterEpochMs 由回應標頭推算可重試的絕對時間（毫秒），無法推得時回傳 0
// 支援 Retry-After（秒數或 HTTP 日期）與 X-RateLimit-Reset（epoch 秒或毫秒）
func RetryAfterEpochMs(h http.Header, now time.Time) int64 {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
			return now.Add(time.Duration(secs*float64(time.Second)) + retryAfterBuffer).UnixMilli()
		}
		if t, err := http.ParseTime(v); err == nil {
			return t.Add(retryAfterBuffer).UnixMilli()
		}
	}

	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			// 13 位數為毫秒
			if n < 1e12 {
				n *= 1000
			}
			return time.UnixMilli(n).Add(retryAfterBuffer).UnixMilli()
		}
	}
	return 0
}

func isRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "quota") || strings.Contains(lower, "too many requests")
}

func isUnavailableMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "overloaded") || strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "temporarily unavailable") || strings.Contains(lower, "bad gateway")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sanitizeResponse 清理響應內容，移除所有圖片數據
func sanitizeResponse(body []byte) string {
	text := string(body)
	if strings.Contains(text, "data:image/") {
		return "[IMAGE_DATA_REMOVED]"
	}
	if len(text) > 500 {
		return text[:500] + "...(truncated)"
	}
	return text
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
