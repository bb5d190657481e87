package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// captureStdout redirects terminal output into a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = zapcore.AddSync(buf)
	t.Cleanup(func() { stdout = prev })
	return buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected Level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected Format 'json', got '%s'", cfg.Format)
	}
	if !cfg.LogInTerminal {
		t.Error("expected LogInTerminal to be true")
	}
	if cfg.LogToFile {
		t.Error("expected LogToFile to be false")
	}
}

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"dpanic", zapcore.DPanicLevel},
		{"panic", zapcore.PanicLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{Level: tt.level}
			if got := cfg.TransportLevel(); got != tt.expected {
				t.Errorf("TransportLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Level: "warn"}
	cfg.applyDefaults()

	if cfg.Level != "warn" {
		t.Errorf("applyDefaults should keep Level, got %q", cfg.Level)
	}
	if cfg.Format != "json" || cfg.Director != "logs" || cfg.MaxSize != 100 {
		t.Errorf("applyDefaults did not fill defaults: %+v", cfg)
	}
}

func TestNewLogger_JSONToTerminal(t *testing.T) {
	buf := captureStdout(t)

	logger := NewLogger(DefaultConfig())
	logger.Info("hello", zap.String("key", "value"))
	logger.Debug("hidden")
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry should be filtered at info level")
	}
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	buf := captureStdout(t)

	cfg := DefaultConfig()
	cfg.Format = "console"
	NewLogger(cfg).Warn("careful")

	if strings.Contains(buf.String(), "{") {
		t.Errorf("console format should not emit JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "careful") {
		t.Errorf("missing message: %s", buf.String())
	}
}

func TestNewLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.LogInTerminal = false
	cfg.LogToFile = true
	cfg.Director = dir

	logger := NewLogger(cfg)
	logger.Error("disk entry")
	_ = logger.Sync()
	t.Cleanup(func() { _ = CloseAllWriters() })

	path := filepath.Join(dir, time.Now().Format("2006-01-02"), "error.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !strings.Contains(string(data), "disk entry") {
		t.Errorf("error.log does not contain entry: %s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, time.Now().Format("2006-01-02"), "info.log")); err == nil {
		t.Error("info.log should not be created by an error entry")
	}
}

func TestOpen_ClosesOwnWriters(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.LogInTerminal = false
	cfg.LogToFile = true
	cfg.Director = dir
	cfg.Level = "error"

	logger, closer := Open(cfg)
	logger.Error("owned entry")

	opened := closer.(writerSet)
	if len(opened) == 0 {
		t.Fatal("expected file writers for error level and above")
	}
	if opened[0].current == nil {
		t.Fatal("error writer should hold an open file after a write")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, w := range opened {
		if w.current != nil {
			t.Errorf("%s writer still open after Close", w.level)
		}
	}

	writersMu.Lock()
	defer writersMu.Unlock()
	for _, w := range writers {
		for _, o := range opened {
			if w == o {
				t.Error("Open writers must not be tracked by CloseAllWriters")
			}
		}
	}
}

func TestLoggerChildren(t *testing.T) {
	buf := captureStdout(t)
	logger := NewLogger(DefaultConfig())

	logger.Named("cache").With(zap.String("component", "test")).WithError(errors.New("boom")).Info("child")

	out := buf.String()
	for _, want := range []string{`"logger":"cache"`, `"component":"test"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("ignored")
	if l.Zap() == nil {
		t.Fatal("Zap() should not be nil")
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory(NewNop())

	logger1 := factory.GetLogger("service1")
	logger2 := factory.GetLogger("service1")
	logger3 := factory.GetLogger("service2")

	if logger1 != logger2 {
		t.Error("GetLogger should return same logger for same name")
	}
	if logger1 == logger3 {
		t.Error("GetLogger should return different logger for different name")
	}
}

func TestContextFunctions(t *testing.T) {
	ctx := context.Background()
	ctx = SetTraceID(ctx, "trace-123")
	ctx = SetRequestID(ctx, "req-789")
	ctx = SetUserID(ctx, "user-abc")

	if got := GetTraceID(ctx); got != "trace-123" {
		t.Errorf("GetTraceID() = %v, want %v", got, "trace-123")
	}
	if got := GetRequestID(ctx); got != "req-789" {
		t.Errorf("GetRequestID() = %v, want %v", got, "req-789")
	}
	if got := GetUserID(ctx); got != "user-abc" {
		t.Errorf("GetUserID() = %v, want %v", got, "user-abc")
	}
	if got := GetTraceID(nil); got != "" {
		t.Errorf("GetTraceID(nil) = %q, want empty", got)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	buf := captureStdout(t)
	logger := NewLogger(DefaultConfig())

	ctx := SetRequestID(context.Background(), "req-1")
	WithContext(logger, ctx).Info("scoped")

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("missing request_id: %s", buf.String())
	}
	if WithContext(logger, context.Background()) != logger {
		t.Error("WithContext without ids should return the same logger")
	}
}

func TestContextLoggerStorage(t *testing.T) {
	logger := NewNop()
	ctx := ToContext(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) != Global() {
		t.Error("FromContext without a stored logger should return Global()")
	}
}

func TestSetGlobal(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	custom := NewNop()
	SetGlobal(custom)

	if Global() != custom {
		t.Error("Global() should return the installed logger")
	}
}

func TestHooks(t *testing.T) {
	var seen []string
	hook := func(e zapcore.Entry) error {
		seen = append(seen, e.Message)
		return errors.New("ignored")
	}

	buf := captureStdout(t)
	logger := WithHooks(NewLogger(DefaultConfig()), hook)
	logger.Info("one")
	logger.With(zap.Int("n", 2)).Warn("two")

	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Errorf("hook saw %v", seen)
	}
	if !strings.Contains(buf.String(), "two") {
		t.Error("hook error must not drop the entry")
	}
	if WithHooks(logger) != logger {
		t.Error("WithHooks without hooks should return the same logger")
	}
}
