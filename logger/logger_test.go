package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "test", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("expected one json line, got %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", l.name)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("expected invalid level to fall back to info")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected info message to be written")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.GetLogger().GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %s", l.GetLogger().GetLevel())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	if l.Enabled(zerolog.ErrorLevel) {
		t.Error("expected nop logger to be disabled")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithComponent("resource").Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "resource" {
		t.Errorf("expected component 'resource', got %v", m[FieldComponent])
	}
	if m["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", m["message"])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	jsonLogger(&buf, "info").WithContext(ctx).Info("call")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("expected request id 'req-1', got %v", m[FieldRequestID])
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	l := NewDefault("test")
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when context carries nothing")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "debug").
		WithFields(map[string]interface{}{FieldKind: "Widget"}).
		WithError(fmt.Errorf("boom")).
		Debug("failed", Fields(FieldLocation, "/r/1"))

	m := decodeLine(t, &buf)
	if m[FieldKind] != "Widget" {
		t.Errorf("expected kind field, got %v", m[FieldKind])
	}
	if m[FieldError] != "boom" {
		t.Errorf("expected error field, got %v", m[FieldError])
	}
	if m[FieldLocation] != "/r/1" {
		t.Errorf("expected location field, got %v", m[FieldLocation])
	}
}

func TestInit(t *testing.T) {
	Init(Config{Level: "info", Format: "json", Output: "stdout"})
	if GetGlobalLogger() == nil {
		t.Fatal("expected global logger to be set after Init")
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "debug")
	SetGlobalLogger(l)
	defer SetGlobalLogger(nil)

	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	WithComponent("cli").Info("component msg")
	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Errorf("expected 5 lines, got %d", got)
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "info", Format: "console", NoColor: true}
	NewWithWriter(cfg, "resourcectl", &buf).Warn("careful")

	out := buf.String()
	if !strings.Contains(out, "[RES][WRN]") {
		t.Errorf("expected level tag with name prefix, got %q", out)
	}
	if !strings.Contains(out, "careful") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"disabled", Config{Level: "disabled", Format: "json"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		input    []interface{}
		expected map[string]interface{}
	}{
		{
			"key-value pairs",
			[]interface{}{"op", "save", "id", 42},
			map[string]interface{}{"op": "save", "id": 42},
		},
		{
			"odd number of args",
			[]interface{}{"op", "save", "trailing"},
			map[string]interface{}{"op": "save"},
		},
		{
			"non-string key skipped",
			[]interface{}{123, "value", "key", "val"},
			map[string]interface{}{"key": "val"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Fields(tc.input...)
			if len(result) != len(tc.expected) {
				t.Errorf("expected %d fields, got %d", len(tc.expected), len(result))
			}
			for k, v := range tc.expected {
				if result[k] != v {
					t.Errorf("Fields[%q] = %v, expected %v", k, result[k], v)
				}
			}
		})
	}
}

func TestErrorFields(t *testing.T) {
	fields := ErrorFields("refresh", fmt.Errorf("something broke"))

	if fields[FieldOperation] != "refresh" {
		t.Errorf("expected operation 'refresh', got %v", fields[FieldOperation])
	}
	if fields[FieldError] != "something broke" {
		t.Errorf("expected error 'something broke', got %v", fields[FieldError])
	}
}

func TestMergeWithError(t *testing.T) {
	err := fmt.Errorf("test error")

	result := MergeWithError(map[string]interface{}{"op": "save"}, err)
	if result[FieldError] != "test error" {
		t.Errorf("expected error field, got %v", result[FieldError])
	}
	if result["op"] != "save" {
		t.Error("expected existing fields to be preserved")
	}

	if MergeWithError(nil, err)[FieldError] != "test error" {
		t.Error("expected error field from nil map")
	}
}

func TestMergeWithDuration(t *testing.T) {
	d := 200 * time.Millisecond

	result := MergeWithDuration(map[string]interface{}{"op": "query"}, d)
	if result[FieldDuration] != int64(200) {
		t.Errorf("expected duration 200, got %v", result[FieldDuration])
	}
	if MergeWithDuration(nil, d)[FieldDuration] != int64(200) {
		t.Error("expected duration from nil map")
	}
}
