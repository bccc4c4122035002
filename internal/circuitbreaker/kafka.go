// v0
// internal/circuitbreaker/kafka.go
package circuitbreaker

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter mirrors the subset of kafka.Writer the wrapper needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Writer wraps a kafka writer with a breaker, keeping the WriteMessages
// signature so call sites swap in transparently.
type Writer struct {
	inner messageWriter
	brk   *Breaker
}

// WrapWriter protects w with a breaker named after the topic it serves.
func WrapWriter(name string, w messageWriter, cfg Config, logger *slog.Logger) *Writer {
	return &Writer{inner: w, brk: New(name, cfg, logger, nil)}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.brk.Execute(ctx, func(ctx context.Context) error {
		return w.inner.WriteMessages(ctx, msgs...)
	})
}

// State exposes the underlying breaker state for metrics.
func (w *Writer) State() State { return w.brk.State() }

// ConfigFromEnv reads the breaker tunables:
//   - CB_MAX_FAILURES (default 5)
//   - CB_RESET_SECONDS (default 30)
func ConfigFromEnv() Config {
	cfg := Config{MaxFailures: 5, ResetTimeout: 30 * time.Second}
	if v := os.Getenv("CB_MAX_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxFailures = n
		}
	}
	if v := os.Getenv("CB_RESET_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResetTimeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}
