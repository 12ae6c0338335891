package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: "json", Writer: &buf}
	return New(cfg, "test-svc"), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if idx := strings.LastIndex(line, "\n"); idx >= 0 {
		line = line[idx+1:]
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return m
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "invalid-level")
	l.Debug("hidden")
	l.Info("shown")
	m := decodeLine(t, buf)
	if m["message"] != "shown" {
		t.Errorf("expected info fallback, got %v", m)
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug line written at info level")
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"d", "i", "w", "e"}},
		{"warn", []string{"w", "e"}},
		{"disabled", nil},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, buf := newBufferLogger(t, tt.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")
			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				var m map[string]interface{}
				if err := json.Unmarshal([]byte(line), &m); err != nil {
					t.Fatal(err)
				}
				got = append(got, m["message"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("messages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithComponent_AddsField(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithComponent("reader").Info("opened")
	m := decodeLine(t, buf)
	if m[FieldComponent] != "reader" {
		t.Errorf("expected component=reader, got %v", m[FieldComponent])
	}
	if m["message"] != "opened" {
		t.Errorf("expected message 'opened', got %v", m["message"])
	}
}

func TestWithContext_PipelineAndEpoch(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	ctx := ContextWithPipeline(context.Background(), "p-1", 3)
	l.WithContext(ctx).Info("epoch started")
	m := decodeLine(t, buf)
	if m[FieldPipelineID] != "p-1" {
		t.Errorf("expected pipeline_id=p-1, got %v", m[FieldPipelineID])
	}
	if m[FieldEpoch] != float64(3) {
		t.Errorf("expected epoch=3, got %v", m[FieldEpoch])
	}
}

func TestWithContext_Empty(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithContext(context.Background()).Info("plain")
	m := decodeLine(t, buf)
	if _, ok := m[FieldPipelineID]; ok {
		t.Error("did not expect pipeline_id without context values")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	l, buf := newBufferLogger(t, "info")
	l.WithFields(Fields("shard_id", 2)).WithError(errors.New("boom")).Warn("substituted")
	m := decodeLine(t, buf)
	if m["shard_id"] != float64(2) {
		t.Errorf("expected shard_id=2, got %v", m["shard_id"])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
	if m["level"] != "warn" {
		t.Errorf("expected level=warn, got %v", m["level"])
	}
}

func TestInit(t *testing.T) {
	prev := global.Load()
	defer global.Store(prev)

	Init(Config{Level: "debug", Format: "json", ServiceName: "augkit"})
	if GetGlobalLogger() == nil {
		t.Fatal("expected global logger after Init")
	}
	if GetGlobalLogger().service != "augkit" {
		t.Errorf("expected service augkit, got %q", GetGlobalLogger().service)
	}
}

func TestSetGlobalLogger(t *testing.T) {
	prev := global.Load()
	defer global.Store(prev)

	custom := NewNop()
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected custom global logger")
	}
	// Package-level helpers must not panic on a nop logger.
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"disabled level", Config{Level: "disabled", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
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

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Format: "console", NoColor: true, Writer: &buf}, "augkit")
	l.Info("hello", Fields("batch", 1))
	out := buf.String()
	if !strings.Contains(out, "[AUG][INF]") {
		t.Errorf("expected service and level tag, got %q", out)
	}
	if !strings.Contains(out, "batch:") {
		t.Errorf("expected field name formatting, got %q", out)
	}
}

func TestRegisterAndGet(t *testing.T) {
	l := NewNop()
	Register("custom", l)
	if Get("custom") != l {
		t.Error("expected registered logger")
	}
	if Get("unregistered-component") == nil {
		t.Error("expected fallback logger")
	}
}

func TestRegisterDefaults(t *testing.T) {
	RegisterDefaults()
	for _, name := range []string{"reader", "decode", "dag", "batch", "executor"} {
		registry.mu.RLock()
		_, ok := registry.loggers[name]
		registry.mu.RUnlock()
		if !ok {
			t.Errorf("expected %s to be registered", name)
		}
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %d: %v", len(m), m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("decode", errors.New("bad"))
	if ef[FieldOperation] != "decode" || ef[FieldError] != "bad" {
		t.Errorf("unexpected error fields: %v", ef)
	}
	df := DurationFields("epoch", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
	merged := MergeWithError(nil, errors.New("x"))
	if merged[FieldError] != "x" {
		t.Errorf("expected error in merged fields, got %v", merged)
	}
}
