package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_ErrorLevel(t *testing.T) {
	logger := New("error", "text")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info level to be disabled at error level")
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Info("forensiq check failed", "kind", "transport")

	out := buf.String()
	if !strings.Contains(out, `"msg":"forensiq check failed"`) {
		t.Errorf("expected JSON message, got %q", out)
	}
	if !strings.Contains(out, `"kind":"transport"`) {
		t.Errorf("expected kind attribute, got %q", out)
	}
}

func TestNewWithWriter_TextDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "text")
	logger.Debug("pool maintained")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := RequestID(ctx); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
	ctx = WithRequestID(ctx, "req-123")
	if id := RequestID(ctx); id != "req-123" {
		t.Errorf("Expected 'req-123', got %q", id)
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("Expected slog.Default() without a context logger")
	}
}

func TestL_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewWithWriter(&buf, "info", "json"))
	ctx = WithRequestID(ctx, "req-abc")

	L(ctx).Info("check")
	if !strings.Contains(buf.String(), `"request_id":"req-abc"`) {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}
}
