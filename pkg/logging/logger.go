// Package logging provides the structured JSON logger used across shipyard.
// It wraps slog with request correlation IDs and redaction of secrets such as
// upload API keys.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// LevelEnvVar selects the log level when set
const LevelEnvVar = "SHIPYARD_LOG_LEVEL"

// Logger wraps slog.Logger with context-first helpers
type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON to stdout at the level named by SHIPYARD_LOG_LEVEL
// (DEBUG, INFO, WARN or ERROR; INFO when unset).
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, ParseLevel(os.Getenv(LevelEnvVar)))
}

// NewLoggerWithWriter writes JSON to w at the given level
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: sanitizeAttributes,
	})
	return &Logger{slog.New(handler)}
}

// Discard returns a logger that drops everything, for tests and tools
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError+4)
}

// With returns a logger that adds args to every record
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// LogWithContext logs msg and appends the correlation ID carried by ctx
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := GetCorrelationID(ctx); id != "" {
		args = append(args, "correlation_id", id)
	}
	l.Log(ctx, level, msg, args...)
}

// Info logs at info level
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at warn level
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level with err under the "error" key
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

// Debug logs at debug level
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

type correlationIDKey struct{}

// WithCorrelationID stores id in ctx, generating one when id is empty
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = GenerateCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the ID stored in ctx or ""
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID returns a new random UUID string
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var sensitiveKeys = []string{
	"password", "passwd", "token", "authorization",
	"secret", "api_key", "apikey", "cookie",
}

// sanitizeAttributes masks values whose key looks like a credential
func sanitizeAttributes(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// WrapError prefixes err with a formatted context message
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
