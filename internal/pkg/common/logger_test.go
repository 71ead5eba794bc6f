package common

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, mode string) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prevLogger, prevMode := Logger, LogMode
	Logger, LogMode = zap.New(core), mode
	t.Cleanup(func() { Logger, LogMode = prevLogger, prevMode })
	return logs
}

func TestLogFiltersPayloadFields(t *testing.T) {
	logs := observe(t, "")

	LogInfo("開始解析",
		zap.String("image_data", "AAAA"),
		zap.String("raw_html", "<html>"),
		zap.String("image_base64", "BBBB"),
		zap.Int("html_length", 6),
		zap.String("image_type", "base64"),
		zap.String("content", strings.Repeat("x", maxLoggedValueChars+10)),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	for _, k := range []string{"image_data", "raw_html", "image_base64"} {
		if _, ok := fields[k]; ok {
			t.Errorf("payload field %q was logged", k)
		}
	}
	for _, k := range []string{"html_length", "image_type"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("field %q was dropped", k)
		}
	}
	if got := fields["content"].(string); len(got) != maxLoggedValueChars+3 {
		t.Errorf("long value length = %d, want truncated", len(got))
	}
}

func TestLogConciseMode(t *testing.T) {
	logs := observe(t, LogModeConcise)

	LogInfo("快取管理員已初始化")
	LogInfo("請求完成", zap.Int("status", 200))
	LogWarn("AI enrichment failed")

	var msgs []string
	for _, e := range logs.All() {
		msgs = append(msgs, e.Message)
	}
	if strings.Join(msgs, "|") != "請求完成|AI enrichment failed" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestLogAICallReportsErrorKind(t *testing.T) {
	logs := observe(t, "")

	LogAICall("test/model", 0, NewServiceUnavailableError(nil))
	entries := logs.FilterMessage("AI 請求失敗").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ContextMap()["error_kind"] != ErrCodeServiceUnavailable {
		t.Errorf("error_kind = %v", entries[0].ContextMap()["error_kind"])
	}
}

func TestNewLoggerLevels(t *testing.T) {
	prevMode := LogMode
	t.Cleanup(func() { LogMode = prevMode })

	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"WARN", false},
		{"nonsense", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(LoggerOptions{Level: tt.level, Console: &buf})
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			logger.Debug("debug line")
			logger.Error("error line")
			if got := strings.Contains(buf.String(), "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(buf.String(), "error line") || !strings.Contains(buf.String(), serviceName) {
				t.Errorf("output = %q", buf.String())
			}
		})
	}
}
