package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext returns a new context with the given logger stored in it.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from the context.
// Returns a stderr-backed warn-level logger if none is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallbackLogger()
}

var (
	fallbackLog  *zap.Logger
	fallbackOnce sync.Once
)

func fallbackLogger() *zap.Logger {
	fallbackOnce.Do(func() {
		l, err := New(Config{Level: "warn"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: failed to create fallback logger: %v\n", err)
			l = Nop()
		}
		fallbackLog = l
	})
	return fallbackLog
}
