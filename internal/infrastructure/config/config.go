package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Fetch       FetchConfig      `mapstructure:"fetch"`
	Extraction  ExtractionConfig `mapstructure:"extraction"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	VisionModel string        `mapstructure:"vision_model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Configured 是否提供了 API 金鑰
func (c OpenRouterConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// FetchConfig 網頁抓取設定
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	MinBodyLength int           `mapstructure:"min_body_length"`
}

// ExtractionConfig 萃取設定
type ExtractionConfig struct {
	MaxHTMLChars int `mapstructure:"max_html_chars"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

const (
	// 網頁抓取逾時上限
	maxFetchTimeout = 15 * time.Second
)

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	v.BindEnv("openrouter.vision_model", "OPENROUTER_VISION_MODEL")
	v.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.backend", "CACHE_BACKEND")
	v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("fetch.timeout", "FETCH_TIMEOUT")
	v.BindEnv("dedup_window", "DEDUP_WINDOW")
	v.BindEnv("log_level", "LOG_LEVEL")

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-parser")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.vision_model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.max_tokens", 4096)
	v.SetDefault("openrouter.temperature", 0.1)
	v.SetDefault("openrouter.timeout", "60s")

	// 網頁抓取設定
	v.SetDefault("fetch.timeout", "12s")
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.min_body_length", 200)

	// 萃取設定
	v.SetDefault("extraction.max_html_chars", 40000)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// DefaultUserAgent 模擬瀏覽器的 User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證抓取設定
	if config.Fetch.Timeout <= 0 || config.Fetch.Timeout > maxFetchTimeout {
		return fmt.Errorf("fetch timeout must be within (0, %s]", maxFetchTimeout)
	}

	if config.Extraction.MaxHTMLChars <= 0 {
		return fmt.Errorf("invalid extraction max html chars")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required for redis cache backend")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}

// Default 產生僅含預設值的設定（測試與函式庫使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}
