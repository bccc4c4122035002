// v0
// internal/circuitbreaker/breaker.go

// Package circuitbreaker guards the Kafka publishing path so a broker outage
// degrades into fast-fails instead of piling up blocked control cycles.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrOpen is returned on fast-fail while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config tunes one breaker instance.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker is a Closed/Open/HalfOpen breaker with an optional probe that runs
// before the first real operation after the reset timeout.
type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time

	probe func(ctx context.Context) error
}

// New builds a breaker. probe may be nil; the half-open transition then goes
// straight to retrying the real operation.
func New(name string, cfg Config, logger *slog.Logger, probe func(ctx context.Context) error) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	b := &Breaker{name: name, cfg: cfg, logger: logger, state: Closed, probe: probe}
	logger.Info("breaker created", "name", name, "maxFailures", cfg.MaxFailures, "resetTimeout", cfg.ResetTimeout.String())
	return b
}

// State reports the current position for status pages and metrics.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op under breaker protection.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	state := b.state
	openedAt := b.openedAt
	b.mu.Unlock()

	if state == Open {
		if time.Since(openedAt) < b.cfg.ResetTimeout {
			b.logger.Warn("breaker fast-fail", "name", b.name, "sinceOpen", time.Since(openedAt).String())
			return ErrOpen
		}
		return b.tryProbeThenOp(ctx, op)
	}

	err := op(ctx)
	if err == nil {
		b.onSuccess()
		return nil
	}
	b.onFailure(err)
	b.mu.Lock()
	isOpen := b.state == Open
	b.mu.Unlock()
	if isOpen {
		return ErrOpen
	}
	return err
}

func (b *Breaker) tryProbeThenOp(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.state = HalfOpen
	had := b.recentFails
	b.mu.Unlock()
	b.logger.Info("breaker probe start", "name", b.name, "previousFailures", had)

	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			b.logger.Warn("breaker probe failed", "name", b.name, "err", err)
			b.reopen()
			return ErrOpen
		}
	}

	if err := op(ctx); err != nil {
		b.logger.Warn("breaker half-open op failed", "name", b.name, "err", err)
		b.reopen()
		return err
	}

	b.mu.Lock()
	b.state = Closed
	b.recentFails = 0
	b.mu.Unlock()
	b.logger.Info("breaker closed after probe", "name", b.name)
	return nil
}

func (b *Breaker) reopen() {
	b.mu.Lock()
	b.state = Open
	b.openedAt = time.Now()
	b.recentFails++
	b.mu.Unlock()
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	b.recentFails = 0
	b.mu.Unlock()
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	b.recentFails++
	tripped := b.recentFails >= b.cfg.MaxFailures
	if tripped {
		b.state = Open
		b.openedAt = time.Now()
	}
	fails := b.recentFails
	b.mu.Unlock()
	if tripped {
		b.logger.Error("breaker opened", "name", b.name, "failures", fails, "err", err)
	} else {
		b.logger.Warn("breaker failure", "name", b.name, "failures", fails, "err", err)
	}
}
