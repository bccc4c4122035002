// v2
// cmd/plantops/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"plantops/internal/analyze"
	"plantops/internal/circuitbreaker"
	"plantops/internal/config"
	"plantops/internal/engine"
	"plantops/internal/history"
	"plantops/internal/httpapi"
	"plantops/internal/kafkaio"
	"plantops/internal/logging"
	"plantops/internal/observability"
	"plantops/internal/plan"
	"plantops/internal/setpoints"
)

func main() {
	logger := logging.New("plantops")
	logger.Info("plant control service starting")

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	sp, err := setpoints.New(cfg.TankIDs(), cfg.SetpointDefaults(), cfg.SetpointMinMgL, cfg.SetpointMaxMgL)
	if err != nil {
		logger.Error("setpoints error", "err", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	bus, err := kafkaio.New(cfg, logger)
	if err != nil {
		logger.Error("kafka io error", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	hist, err := history.Open(cfg.HistoryDBPath, logger)
	if err != nil {
		logger.Error("history store error", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			logger.Error("history close failed", "err", err)
		}
	}()

	eng := engine.New(cfg, logger,
		bus,
		analyze.New(cfg, sp, logger),
		plan.New(cfg, logger),
		hist,
		metrics,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Setpoint hot reload from the properties/topology files.
	if err := cfg.Watch(ctx, logger, func(fresh *config.AppConfig) {
		if err := sp.Reset(fresh.SetpointDefaults()); err != nil {
			logger.Warn("setpoint reset rejected", "err", err)
			return
		}
		logger.Info("setpoints reloaded from properties")
	}); err != nil {
		logger.Warn("properties watch unavailable", "err", err)
	}

	go eng.Run(ctx)
	go reportBreakerStates(ctx, bus, metrics)

	api := httpapi.NewServer(cfg, sp, eng, hist, metrics, logger)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handlers.LoggingHandler(os.Stdout, api.Handler()),
	}
	go func() {
		logger.Info("http listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-stop
	logger.Info("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	time.Sleep(300 * time.Millisecond)
	logger.Info("shutdown complete")
}

// reportBreakerStates mirrors the writer breakers onto the cb_state gauge.
func reportBreakerStates(ctx context.Context, bus *kafkaio.IO, metrics *observability.Metrics) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for target, state := range bus.BreakerStates() {
				var v int
				switch state {
				case circuitbreaker.HalfOpen:
					v = 1
				case circuitbreaker.Open:
					v = 2
				}
				metrics.SetBreakerState(target, v)
			}
		}
	}
}
