package aiextract

import (
	"context"
	"time"

	"recipe-parser/internal/core/ai/service"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer AI 服務介面
type Completer interface {
	Configured() bool
	ProcessRequest(ctx context.Context, req service.Request) (*service.Response, error)
}

// Client 以模型萃取食譜
type Client struct {
	ai           Completer
	maxHTMLChars int
}

// NewClient 建立萃取客戶端，ai 可為 nil（視為未設定）
func NewClient(ai Completer, maxHTMLChars int) *Client {
	return &Client{ai: ai, maxHTMLChars: maxHTMLChars}
}

// Configured 是否能發出推論請求
func (c *Client) Configured() bool {
	return c != nil && c.ai != nil && c.ai.Configured()
}

// FromHTML 從清理後的 HTML 萃取食譜
func (c *Client) FromHTML(ctx context.Context, cleanedHTML string) (*common.Draft, error) {
	return c.extract(ctx, "html", service.Request{
		System: SystemPrompt(),
		Prompt: HTMLPrompt(cleanedHTML, c.maxHTMLChars),
	})
}

// FromImage 從 JPEG data URI 萃取食譜
func (c *Client) FromImage(ctx context.Context, imageDataURI string) (*common.Draft, error) {
	return c.extract(ctx, "image", service.Request{
		System:    SystemPrompt(),
		Prompt:    ImagePrompt(),
		ImageData: imageDataURI,
	})
}

func (c *Client) extract(ctx context.Context, source string, req service.Request) (*common.Draft, error) {
	if !c.Configured() {
		return nil, common.NewNotConfiguredError()
	}

	start := time.Now()
	resp, err := c.ai.ProcessRequest(ctx, req)
	if err != nil {
		common.LogWarn("AI 萃取失敗",
			zap.String("source", source),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if _, ok := common.AsCustomError(err); ok {
			return nil, err
		}
		return nil, common.NewServiceUnavailableError(err)
	}
	common.LogDebug("AI 萃取回應",
		zap.String("source", source),
		zap.Bool("cached", resp.Cached),
		zap.Int("content_length", len(resp.Content)),
	)

	return ParseResponse(resp.Content)
}
