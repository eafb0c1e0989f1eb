package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Setenv(LevelEnvVar, "debug")
	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level from environment not applied")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected slog.Level
	}{
		{"debug", "DEBUG", slog.LevelDebug},
		{"info", "INFO", slog.LevelInfo},
		{"warn", "WARN", slog.LevelWarn},
		{"warning", "WARNING", slog.LevelWarn},
		{"error", "ERROR", slog.LevelError},
		{"lowercase", "debug", slog.LevelDebug},
		{"padded", " error ", slog.LevelError},
		{"invalid", "LOUD", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.value); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	t.Run("generated_ids_are_uuids", func(t *testing.T) {
		a, b := GenerateCorrelationID(), GenerateCorrelationID()
		if a == b {
			t.Error("duplicate correlation IDs")
		}
		if _, err := uuid.Parse(a); err != nil {
			t.Errorf("correlation ID %q is not a UUID: %v", a, err)
		}
	})

	t.Run("round_trip", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "req-42")
		if got := GetCorrelationID(ctx); got != "req-42" {
			t.Errorf("GetCorrelationID() = %q", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if got := GetCorrelationID(context.Background()); got != "" {
			t.Errorf("GetCorrelationID() = %q, want empty", got)
		}
	})

	t.Run("auto_generate", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		if GetCorrelationID(ctx) == "" {
			t.Error("empty ID should be replaced")
		}
	})
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)
	ctx := WithCorrelationID(context.Background(), "abc")

	logger.Error(ctx, "upload failed", errors.New("boom"), "ship", "Falcon")

	entry := decodeLine(t, &buf)
	if entry["msg"] != "upload failed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["correlation_id"] != "abc" {
		t.Errorf("correlation_id = %v", entry["correlation_id"])
	}
	if entry["ship"] != "Falcon" {
		t.Errorf("ship = %v", entry["ship"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelWarn)

	logger.Info(context.Background(), "hidden")
	logger.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("messages below level were written: %q", buf.String())
	}

	logger.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}

func TestSanitizeAttributes(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		redacted bool
	}{
		{"api_key", slog.String("api_key", "abc123"), true},
		{"upload_api_key", slog.String("upload_api_key", "abc123"), true},
		{"token", slog.String("auth_token", "t"), true},
		{"password", slog.String("password", "p"), true},
		{"ship_name", slog.String("ship", "Falcon"), false},
		{"fingerprint", slog.String("fingerprint", "deadbeef"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeAttributes(nil, tt.attr)
			isRedacted := got.Value.String() == "[REDACTED]"
			if isRedacted != tt.redacted {
				t.Errorf("sanitizeAttributes(%s) redacted=%v, want %v", tt.attr.Key, isRedacted, tt.redacted)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo).With("component", "service")
	logger.Info(context.Background(), "ready")

	if entry := decodeLine(t, &buf); entry["component"] != "service" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("base")
	wrapped := WrapError(base, "loading %s", "ship.yaml")

	if !errors.Is(wrapped, base) {
		t.Error("wrapped error lost its cause")
	}
	if wrapped.Error() != "loading ship.yaml: base" {
		t.Errorf("message = %q", wrapped.Error())
	}
	if WrapError(nil, "x") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error(context.Background(), "nothing", errors.New("x"))
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled for errors")
	}
}
