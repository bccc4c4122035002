// v1
// internal/engine/engine.go
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"plantops/internal/aeration"
	"plantops/internal/analyze"
	"plantops/internal/config"
	"plantops/internal/models"
	"plantops/internal/observability"
	"plantops/internal/plan"
)

// Bus is the slice of the Kafka layer the engine needs; the interface keeps
// the loop testable without a broker.
type Bus interface {
	DrainTankLatest(ctx context.Context, tank string) (models.ProcessSample, bool, error)
	PublishDecision(ctx context.Context, tank string, blowers []models.BlowerCommand, dose *models.DoseCommand, led models.LedgerEvent) error
}

// Recorder is the history store surface the engine writes through.
type Recorder interface {
	Append(ctx context.Context, ev models.LedgerEvent) error
}

// Stats holds counters for the /status endpoint.
type Stats struct {
	Loops        int64 `json:"loops"`
	SamplesIn    int64 `json:"samplesIn"`
	CommandsOut  int64 `json:"commandsOut"`
	LedgerWrites int64 `json:"ledgerWrites"`
	PublishFails int64 `json:"publishFails"`
}

// Engine coordinates the control loop over all configured tanks.
type Engine struct {
	cfg     *config.AppConfig
	lg      *slog.Logger
	bus     Bus
	an      *analyze.Analyze
	pl      *plan.Plan
	hist    Recorder
	metrics *observability.Metrics

	mu     sync.RWMutex
	stats  Stats
	epoch  int64
	latest map[string][]aeration.Blower
}

func New(cfg *config.AppConfig, lg *slog.Logger, bus Bus, an *analyze.Analyze, pl *plan.Plan, hist Recorder, metrics *observability.Metrics) *Engine {
	return &Engine{
		cfg: cfg, lg: lg, bus: bus, an: an, pl: pl, hist: hist, metrics: metrics,
		latest: make(map[string][]aeration.Blower, len(cfg.Tanks)),
	}
}

// Run executes the round-robin loop over all tanks until the context ends.
func (e *Engine) Run(ctx context.Context) {
	e.lg.Info("engine loop starting", "interval", e.cfg.PollInterval.String(), "tanks", e.cfg.TankIDs())
	t := time.NewTicker(e.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			e.lg.Info("engine loop exiting")
			return
		case <-t.C:
			for _, tank := range e.cfg.TankIDs() {
				if ctx.Err() != nil {
					break
				}
				e.cycle(ctx, tank)
			}
			e.mu.Lock()
			e.stats.Loops++
			e.mu.Unlock()
		}
	}
}

// cycle runs one tank through monitor, analyze, plan and execute.
func (e *Engine) cycle(ctx context.Context, tank string) {
	start := time.Now()

	sample, ok, err := e.bus.DrainTankLatest(ctx, tank)
	if err != nil {
		e.lg.Error("drain error", "tank", tank, "error", err)
		return
	}
	if !ok {
		return // nothing new for this tank this cycle
	}

	e.mu.Lock()
	e.stats.SamplesIn++
	e.epoch++
	epoch := e.epoch
	e.mu.Unlock()

	res := e.an.Run(tank, sample)
	dec := e.pl.Build(tank, epoch, res)

	if err := e.bus.PublishDecision(ctx, tank, dec.Blowers, dec.Dose, dec.Ledger); err != nil {
		e.lg.Error("publish error", "tank", tank, "error", err)
		e.metrics.PublishError()
		e.mu.Lock()
		e.stats.PublishFails++
		e.mu.Unlock()
		return
	}

	if e.hist != nil {
		if err := e.hist.Append(ctx, dec.Ledger); err != nil {
			e.lg.Warn("history append failed", "tank", tank, "error", err)
		}
	}

	cmds := len(dec.Blowers)
	if dec.Dose != nil {
		cmds++
	}
	e.mu.Lock()
	e.stats.CommandsOut += int64(cmds)
	e.stats.LedgerWrites++
	e.latest[tank] = dec.Fleet
	e.mu.Unlock()

	e.metrics.ObserveCycle(tank, time.Since(start), dec.Ledger.BlowersOn, dec.Ledger.TotalPowerKW, dec.Ledger.RequiredAirflowM3h, cmds)
}

// Stats returns a copy of the loop counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// LatestAssignment returns the most recent blower assignment for a tank.
func (e *Engine) LatestAssignment(tank string) ([]aeration.Blower, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fleet, ok := e.latest[tank]
	if !ok {
		return nil, false
	}
	out := make([]aeration.Blower, len(fleet))
	copy(out, fleet)
	return out, true
}

// Assignments returns the latest assignment for every tank that has one.
func (e *Engine) Assignments() map[string][]aeration.Blower {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string][]aeration.Blower, len(e.latest))
	for tank, fleet := range e.latest {
		cp := make([]aeration.Blower, len(fleet))
		copy(cp, fleet)
		out[tank] = cp
	}
	return out
}
