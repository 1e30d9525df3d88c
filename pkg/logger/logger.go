package logger

import (
	"context"
	"log/slog"
	"os"
)

// New returns a structured JSON logger. Debug level outside prod keeps the
// forwarded-body diagnostics visible while developing against the test
// backend.
func New(mode string) *slog.Logger {
	level := slog.LevelDebug
	if mode == "prod" {
		level = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
