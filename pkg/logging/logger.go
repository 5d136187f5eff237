// Package logging is the skymount structured logger: JSON lines through
// log/slog, request correlation through the context, and masking of
// attribute keys that look like credentials.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar names the environment variable holding the default log level
const LevelEnvVar = "SKYMOUNT_LOG_LEVEL"

// CorrelationKey is the attribute key carrying a request's correlation ID
const CorrelationKey = "correlation_id"

const redacted = "[REDACTED]"

// Attribute keys containing any of these fragments are masked
var redactedFragments = []string{
	"password", "passwd", "pwd",
	"token", "auth", "secret",
	"key", "private", "cookie", "session",
}

// Logger is a slog.Logger whose helpers take a context and add the
// correlation ID found there.
type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON to stdout at the level named by SKYMOUNT_LOG_LEVEL
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, ParseLevel(os.Getenv(LevelEnvVar)))
}

// NewLoggerWithWriter writes JSON to w at level
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}))}
}

// Discard returns a Logger that drops everything
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError+4)
}

// LogWithContext logs at level, appending the context's correlation ID if any
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := CorrelationID(ctx); id != "" {
		args = append(args, CorrelationKey, id)
	}
	l.Log(ctx, level, msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at error level; a non-nil err is added under "error"
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

type correlationKey struct{}

// WithCorrelationID stores id in ctx. An empty id is replaced by a fresh one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewCorrelationID()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the ID stored by WithCorrelationID, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NewCorrelationID returns 16 random hex characters
func NewCorrelationID() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ParseLevel maps DEBUG, INFO, WARN/WARNING and ERROR, in any case, to a
// slog level. Anything else is INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
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

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, fragment := range redactedFragments {
		if strings.Contains(key, fragment) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// WrapError prefixes err with a formatted description. A nil err stays nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
