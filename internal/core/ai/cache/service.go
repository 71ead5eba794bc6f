package cache

import (
	"context"
	"errors"
	"fmt"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service Redis 緩存服務，多個實例共用時使用
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, prompt string, imageData string) (string, error) {
	val, err := s.client.Get(ctx, s.generateKey(prompt, imageData)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss("redis")
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, prompt string, imageData string, value string) error {
	if err := s.client.Set(ctx, s.generateKey(prompt, imageData), value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *Service) Close() error {
	return s.client.Close()
}

// generateKey 生成緩存鍵
func (s *Service) generateKey(prompt string, imageData string) string {
	return "recipe-parser:ai:" + generateKey(prompt, imageData)
}
