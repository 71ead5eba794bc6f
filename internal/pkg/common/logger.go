package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName = "recipe-parser"

	// LogModeConcise 只輸出請求完成與服務啟停
	LogModeConcise = "concise"

	// 欄位值超過此長度時截斷，避免整頁 HTML 或 AI 回應寫進日誌
	maxLoggedValueChars = 500
)

var (
	// Logger 全局日誌實例，InitLogger 之前為 no-op
	Logger  = zap.NewNop()
	LogMode string

	conciseMessages = map[string]bool{
		"請求完成":                    true,
		"啟動應用":                    true,
		"Shutting down server...": true,
		"Server exited":           true,
	}

	// 不寫進日誌的欄位：照片與原始頁面內容
	payloadKeys = []string{"image", "image_data", "base64", "html", "raw_html"}

	levelTags = map[zapcore.Level]string{
		zapcore.DebugLevel: "\033[36mDBG\033[0m",
		zapcore.InfoLevel:  "\033[32mINF\033[0m",
		zapcore.WarnLevel:  "\033[33mWRN\033[0m",
		zapcore.ErrorLevel: "\033[31mERR\033[0m",
		zapcore.FatalLevel: "\033[35mFAT\033[0m",
	}
)

// LoggerOptions 日誌輸出設定
type LoggerOptions struct {
	Level string
	Mode  string
	// Dir 為空時不寫檔
	Dir     string
	Console io.Writer
}

func encoderConfig(colored bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if colored {
		cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			if tag, ok := levelTags[l]; ok {
				enc.AppendString(tag)
				return
			}
			enc.AppendString(l.CapitalString())
		}
		cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("15:04:05.000"))
		}
	}
	return cfg
}

// InitLogger 初始化日誌系統：彩色終端輸出加上 logs/app.log 的 JSON 檔案
func InitLogger(logLevel string) error {
	logger, err := NewLogger(LoggerOptions{
		Level:   logLevel,
		Mode:    os.Getenv("LOG_MODE"),
		Dir:     "logs",
		Console: os.Stdout,
	})
	if err != nil {
		return err
	}
	Logger = logger
	zap.ReplaceGlobals(Logger)
	return nil
}

// NewLogger 依設定建立 logger 並套用 LogMode
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	LogMode = opts.Mode

	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(true)),
			zapcore.AddSync(opts.Console),
			level,
		))
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile, err := os.OpenFile(filepath.Join(opts.Dir, "app.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig(false)),
			zapcore.AddSync(logFile),
			level,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("service", serviceName)),
	), nil
}

// LogInfo 記錄信息日誌，精簡模式下只保留請求完成與啟停訊息
func LogInfo(msg string, fields ...zap.Field) {
	if LogMode == LogModeConcise && !conciseMessages[msg] {
		return
	}
	Logger.Info(msg, filterFields(fields)...)
}

// LogError 記錄錯誤日誌
func LogError(msg string, fields ...zap.Field) {
	Logger.Error(msg, filterFields(fields)...)
}

// LogWarn 記錄警告日誌
func LogWarn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, filterFields(fields)...)
}

// LogDebug 記錄調試日誌
func LogDebug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, filterFields(fields)...)
}

// LogFatal 記錄致命錯誤日誌
func LogFatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, filterFields(fields)...)
}

// Sync 同步日誌緩衝
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// filterFields 移除照片與頁面內容欄位，過長的字串截斷
func filterFields(fields []zap.Field) []zap.Field {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if isPayloadKey(field.Key) {
			continue
		}
		if field.Type == zapcore.StringType && len(field.String) > maxLoggedValueChars {
			field = zap.String(field.Key, field.String[:maxLoggedValueChars]+"...")
		}
		filtered = append(filtered, field)
	}
	return filtered
}

func isPayloadKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range payloadKeys {
		if key == k || strings.HasSuffix(key, "_"+k) {
			return true
		}
	}
	return strings.Contains(key, "base64")
}

// LogCacheHit 記錄快取命中
func LogCacheHit(backend string) {
	LogDebug("快取命中", zap.String("backend", backend))
}

// LogCacheMiss 記錄快取未命中
func LogCacheMiss(backend string) {
	LogDebug("快取未命中", zap.String("backend", backend))
}

// LogAICall 記錄一次推論呼叫
func LogAICall(model string, duration time.Duration, err error) {
	if err != nil {
		LogWarn("AI 請求失敗",
			zap.String("model", model),
			zap.String("error_kind", ErrorCode(err)),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return
	}
	LogInfo("AI 請求成功",
		zap.String("model", model),
		zap.Duration("duration", duration),
	)
}
