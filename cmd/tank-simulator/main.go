// v2
// cmd/tank-simulator/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantops/internal/logging"
)

func main() {
	logger := logging.New("tank-simulator")
	logger.Info("tank simulator starting")

	cfg, err := buildConfig(logger)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	doID := cfg.DOProbeID
	if doID == "" {
		doID = uuidv4()
	}
	phID := cfg.PHProbeID
	if phID == "" {
		phID = uuidv4()
	}
	flowID := cfg.FlowID
	if flowID == "" {
		flowID = uuidv4()
	}
	doseID := cfg.DosePumpID
	if doseID == "" {
		doseID = uuidv4()
	}

	blowers := make(map[string]blowerState, cfg.NumBlowers)
	for i := 0; i < cfg.NumBlowers; i++ {
		blowers[fmt.Sprintf("BL%02d", i+1)] = blowerState{}
	}

	sim := &Simulator{
		log: logger, cfg: cfg,
		do: cfg.InitialDOMgL, ph: cfg.InitialPH, bod: cfg.InitialBODMgL,
		blowers:  blowers,
		doseChem: "NONE",
		lastE:    time.Now(),
		doProbeID: doID, phProbeID: phID, flowID: flowID, dosePumpID: doseID,
	}

	topic := cfg.TopicReadingPrefix + "." + cfg.TankID
	writer := newKafkaWriter(cfg.KafkaBrokers, topic)
	logger.Info("kafka writer ready", "topic", topic, "brokers", cfg.KafkaBrokers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Process model at fixed 'step'
	sim.startProcessLoop(ctx)

	// Per-instrument publishers (DORate/PHRate/FlowRate)
	sim.startPublisher(ctx, writer, doID, instrumentDO)
	sim.startPublisher(ctx, writer, phID, instrumentPH)
	sim.startPublisher(ctx, writer, flowID, instrumentFlow)

	// Command consumer (blower and dosing commands from the control service)
	sim.startCommandConsumer(ctx)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: sim.routes()}
	go func() {
		logger.Info("http listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-stop
	logger.Info("shutdown signal received")
	_ = srv.Shutdown(context.Background())
	cancel()
	time.Sleep(300 * time.Millisecond)
	logger.Info("shutdown complete")
}
