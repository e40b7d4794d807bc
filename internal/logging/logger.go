// Package logging provides structured JSON logging for dronesim on top of
// log/slog, with a per-run ID carried through the context.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"strings"
)

const EnvLevel = "DRONESIM_LOG_LEVEL"

type Logger struct {
	*slog.Logger
}

// New writes JSON records at or above level to w.
func New(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{slog.New(handler)}
}

// FromEnv logs to stderr at the level named by DRONESIM_LOG_LEVEL.
func FromEnv() *Logger {
	return New(os.Stderr, ParseLevel(os.Getenv(EnvLevel)))
}

// Discard drops every record.
func Discard() *Logger {
	return New(io.Discard, slog.LevelError)
}

// ParseLevel accepts DEBUG, INFO, WARN(ING) and ERROR in any case and
// falls back to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
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

func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := RunID(ctx); id != "" {
		args = append(args, "run_id", id)
	}
	l.Log(ctx, level, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs msg with err attached under the "error" key.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

type runIDKey struct{}

// WithRunID tags ctx with id, generating one when id is empty.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRunID()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

func NewRunID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
