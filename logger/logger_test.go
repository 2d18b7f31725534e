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

	"go.opentelemetry.io/otel/trace"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("speakline")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "speakline" {
		t.Errorf("expected service 'speakline', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)

	l.WithComponent("executor").Info("task completed", Fields("executor", "whisper", "queued", 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "task completed" {
		t.Errorf("expected message 'task completed', got %v", entry["message"])
	}
	if entry[FieldComponent] != "executor" {
		t.Errorf("expected component=executor, got %v", entry[FieldComponent])
	}
	if entry["executor"] != "whisper" {
		t.Errorf("expected executor=whisper, got %v", entry["executor"])
	}
}

func TestWithContext_TraceAndRunID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = ContextWithRunID(ctx, "run-1")

	l.WithContext(ctx).Info("stage started")

	out := buf.String()
	if !strings.Contains(out, traceID.String()) {
		t.Errorf("expected trace id in output, got %q", out)
	}
	if !strings.Contains(out, spanID.String()) {
		t.Errorf("expected span id in output, got %q", out)
	}
	if !strings.Contains(out, `"run_id":"run-1"`) {
		t.Errorf("expected run id in output, got %q", out)
	}
}

func TestWithContext_Empty(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)
	l.WithContext(context.Background()).Info("no trace")
	if strings.Contains(buf.String(), FieldTraceID) {
		t.Errorf("expected no trace id without a span, got %q", buf.String())
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "json"}, "test", &buf)
	l.WithFields(map[string]interface{}{"stage": "transcribing"}).WithError(fmt.Errorf("boom")).Error("failed")

	out := buf.String()
	if !strings.Contains(out, `"stage":"transcribing"`) {
		t.Errorf("expected stage field, got %q", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected error field, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "warn", Format: "json"}, "test", &buf)
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn message, got %q", buf.String())
	}
	// restore for other tests
	NewWithWriter(&Config{Level: "debug", Format: "json"}, "test", &bytes.Buffer{})
}

func TestInit(t *testing.T) {
	cfg := Config{
		ServiceName: "init-test",
		Level:       "info",
		Format:      "console",
	}
	Init(&cfg)
	if GetGlobalLogger() == nil {
		t.Fatal("expected global logger to be set after Init")
	}
	if GetGlobalLogger().service != "init-test" {
		t.Errorf("expected service 'init-test', got %q", GetGlobalLogger().service)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected Init to apply defaults, got output %q", cfg.Output)
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestSetGlobalLogger(t *testing.T) {
	l := NewDefault("custom")
	SetGlobalLogger(l)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	Init(&Config{Level: "debug", Format: "console"})
	// These should not panic
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
	if WithContext(context.Background()) == nil {
		t.Fatal("expected non-nil logger from WithContext")
	}
	if WithComponent("orchestrator") == nil {
		t.Fatal("expected non-nil logger from WithComponent")
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
		{"valid pretty", Config{Level: "warn", Format: "pretty"}, false},
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

func TestConsoleLoggerNoColor(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "speakline", &buf)
	l.Warn("degraded shutdown")

	out := buf.String()
	if !strings.Contains(out, "[SPE][WRN]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no color escapes, got %q", out)
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewDefault("custom-component")
	Register("my-component", l)
	t.Cleanup(func() { Register("my-component", nil) })

	if Get("my-component") != l {
		t.Error("expected Get to return the registered logger")
	}
	if Get("unregistered-component") == nil {
		t.Fatal("expected non-nil logger for unregistered component")
	}

	Register("my-component", nil)
	if Get("my-component") == l {
		t.Error("expected nil to remove the override")
	}
}

func TestGetFollowsInit(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	Init(&Config{Level: "warn", Format: "json"})
	first := Get("executor")
	Init(&Config{Level: "debug", Format: "json"})
	if Get("executor") == first {
		t.Error("expected Get to derive from the latest global logger")
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want map[string]interface{}
	}{
		{"empty", nil, map[string]interface{}{}},
		{"pairs", []interface{}{"a", 1, "b", "two"}, map[string]interface{}{"a": 1, "b": "two"}},
		{"odd drops trailing", []interface{}{"a", 1, "b"}, map[string]interface{}{"a": 1}},
		{"non-string key skipped", []interface{}{3, "x", "k", "v"}, map[string]interface{}{"k": "v"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fields(tc.in...)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d fields, got %d (%v)", len(tc.want), len(got), got)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("field %q: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("prepare", fmt.Errorf("ffmpeg exited 1"))
	if ef[FieldOperation] != "prepare" || ef[FieldError] != "ffmpeg exited 1" {
		t.Errorf("unexpected error fields: %v", ef)
	}

	df := DurationFields("transcribe", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected duration 1500, got %v", df[FieldDuration])
	}
}

func TestMergeHelpers(t *testing.T) {
	m := MergeWithError(nil, fmt.Errorf("bad"))
	if m[FieldError] != "bad" {
		t.Errorf("expected error=bad, got %v", m[FieldError])
	}
	m = MergeWithDuration(m, 2*time.Second)
	if m[FieldDuration] != int64(2000) {
		t.Errorf("expected duration 2000, got %v", m[FieldDuration])
	}
	if m[FieldError] != "bad" {
		t.Error("expected existing fields to be preserved")
	}
}

func TestNewFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_NO_COLOR", "LOG_TIMESTAMP"} {
		os.Unsetenv(k)
	}
	if NewFromEnv("defaults-svc") == nil {
		t.Fatal("expected non-nil logger")
	}
}
