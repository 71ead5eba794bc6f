package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-parser/internal/core/ai/cache"
	"recipe-parser/internal/core/ai/openrouter"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"
)

type fakeCompleter struct {
	content string
	err     error
	calls   int
	last    openrouter.ChatRequest
}

func (f *fakeCompleter) GenerateResponse(ctx context.Context, req openrouter.ChatRequest) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.OpenRouter.APIKey = "sk-test"
	cfg.OpenRouter.Model = "text/model"
	cfg.OpenRouter.VisionModel = "vision/model"
	cfg.Cache.MaxSize = 10
	cfg.Cache.TTL = time.Minute
	cfg.Cache.CleanupInterval = 0
	return cfg
}

func TestProcessRequestCaches(t *testing.T) {
	cfg := testConfig()
	store := cache.NewManager(cfg)
	defer store.Close()
	fake := &fakeCompleter{content: `{"title":"Soup"}`}
	svc := NewServiceWithClient(cfg, fake, store)

	req := Request{System: "system", Prompt: "extract  this"}
	first, err := svc.ProcessRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}
	if first.Cached || first.Content != `{"title":"Soup"}` {
		t.Errorf("first response = %+v", first)
	}

	// 空白差異視為同一請求
	second, err := svc.ProcessRequest(context.Background(), Request{System: "system", Prompt: "extract this"})
	if err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}
	if !second.Cached || fake.calls != 1 {
		t.Errorf("second response cached = %v, calls = %d", second.Cached, fake.calls)
	}
}

func TestProcessRequestModelSelection(t *testing.T) {
	tests := []struct {
		name  string
		image string
		want  string
	}{
		{"text", "", "text/model"},
		{"image", "AAAA", "vision/model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{content: "{}"}
			svc := NewServiceWithClient(testConfig(), fake, nil)
			if _, err := svc.ProcessRequest(context.Background(), Request{Prompt: "x", ImageData: tt.image}); err != nil {
				t.Fatalf("ProcessRequest() error = %v", err)
			}
			if fake.last.Model != tt.want {
				t.Errorf("model = %q, want %q", fake.last.Model, tt.want)
			}
			if fake.last.Temperature != svc.config.OpenRouter.Temperature {
				t.Errorf("temperature = %v", fake.last.Temperature)
			}
		})
	}
}

func TestProcessRequestErrors(t *testing.T) {
	cfg := testConfig()
	cfg.OpenRouter.APIKey = ""
	svc := NewServiceWithClient(cfg, &fakeCompleter{}, nil)
	if svc.Configured() {
		t.Error("service without API key should not be configured")
	}
	if _, err := svc.ProcessRequest(context.Background(), Request{Prompt: "x"}); common.ErrorCode(err) != common.ErrCodeAINotConfigured {
		t.Errorf("code = %s, want %s", common.ErrorCode(err), common.ErrCodeAINotConfigured)
	}

	upstream := common.NewRateLimitedError(time.Now().Add(time.Minute), errors.New("429"))
	store := cache.NewManager(testConfig())
	defer store.Close()
	fake := &fakeCompleter{err: upstream}
	svc = NewServiceWithClient(testConfig(), fake, store)
	if _, err := svc.ProcessRequest(context.Background(), Request{Prompt: "x"}); !errors.Is(err, upstream) {
		t.Errorf("error = %v, want upstream error", err)
	}
	if _, err := store.Get(context.Background(), cacheKey(Request{Prompt: "x"}), ""); !errors.Is(err, common.ErrCacheMiss) {
		t.Error("failed responses must not be cached")
	}
}
