package service

import (
	"context"
	"errors"
	"strings"

	"recipe-parser/internal/core/ai/cache"
	"recipe-parser/internal/core/ai/openrouter"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer 推論傳輸層
type Completer interface {
	GenerateResponse(ctx context.Context, req openrouter.ChatRequest) (string, error)
}

// Request AI 請求
type Request struct {
	System    string
	Prompt    string
	ImageData string
}

// Response AI 回應結構
type Response struct {
	Content string
	Cached  bool
}

// Service AI 服務
type Service struct {
	config *config.Config
	client Completer
	cache  cache.Store
}

// NewService 創建 AI 服務，store 可為 nil
func NewService(cfg *config.Config, store cache.Store) *Service {
	return &Service{
		config: cfg,
		client: openrouter.NewClient(&cfg.OpenRouter),
		cache:  store,
	}
}

// NewServiceWithClient 使用指定的傳輸層（測試用）
func NewServiceWithClient(cfg *config.Config, client Completer, store cache.Store) *Service {
	return &Service{
		config: cfg,
		client: client,
		cache:  store,
	}
}

// Configured 是否可以發出推論請求
func (s *Service) Configured() bool {
	return s != nil && s.client != nil && s.config.OpenRouter.Configured()
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, req Request) (*Response, error) {
	if !s.Configured() {
		return nil, common.NewNotConfiguredError()
	}

	// 快取 key 只取正規化後的內容，送出的 prompt 保持原樣
	key := cacheKey(req)

	if s.cache != nil {
		val, err := s.cache.Get(ctx, key, req.ImageData)
		if err == nil && val != "" {
			return &Response{Content: val, Cached: true}, nil
		}
		if err != nil && !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
	}

	model := s.config.OpenRouter.Model
	if req.ImageData != "" && s.config.OpenRouter.VisionModel != "" {
		model = s.config.OpenRouter.VisionModel
	}

	content, err := s.client.GenerateResponse(ctx, openrouter.ChatRequest{
		SystemPrompt: req.System,
		Prompt:       req.Prompt,
		ImageData:    req.ImageData,
		Model:        model,
		MaxTokens:    s.config.OpenRouter.MaxTokens,
		Temperature:  s.config.OpenRouter.Temperature,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && strings.TrimSpace(content) != "" {
		if err := s.cache.Set(ctx, key, req.ImageData, content); err != nil {
			common.LogWarn("寫入快取失敗", zap.Error(err))
		}
	}

	return &Response{Content: content}, nil
}

func cacheKey(req Request) string {
	return strings.Join(strings.Fields(req.System), " ") + "\n" + strings.Join(strings.Fields(req.Prompt), " ")
}
