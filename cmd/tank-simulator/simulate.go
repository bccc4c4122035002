// v1
// cmd/tank-simulator/simulate.go

package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"plantops/internal/models"
)

func (s *Simulator) startProcessLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.Step)
	s.log.Info("process loop started", "step", s.cfg.Step.String())
	go func() {
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				s.integrate(now)
			case <-ctx.Done():
				s.log.Info("process loop stopped")
				return
			}
		}
	}()
}

func (s *Simulator) startPublisher(ctx context.Context, w *kafka.Writer, deviceID string, kind instrumentKind) {
	rate := s.cfg.RateForType(kind)
	if rate <= 0 {
		rate = time.Second
	}
	t := time.NewTicker(rate)
	s.log.Info("publisher started", "deviceId", deviceID, "type", kind, "rate", rate.String())
	go func() {
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				do, ph, bod, flow := s.snapshot()
				switch kind {
				case instrumentDO:
					_ = publish(ctx, s.log, w, models.Reading{
						DeviceID: deviceID, DeviceType: models.InstrumentDO, TankID: s.cfg.TankID,
						Timestamp: now, Reading: map[string]any{"doMgL": do},
					})
				case instrumentPH:
					_ = publish(ctx, s.log, w, models.Reading{
						DeviceID: deviceID, DeviceType: models.InstrumentPH, TankID: s.cfg.TankID,
						Timestamp: now, Reading: map[string]any{"ph": ph},
					})
				case instrumentFlow:
					_ = publish(ctx, s.log, w, models.Reading{
						DeviceID: deviceID, DeviceType: models.InstrumentFlow, TankID: s.cfg.TankID,
						Timestamp: now, Reading: map[string]any{"flowM3h": flow, "bodMgL": bod},
					})
				}
			case <-ctx.Done():
				s.log.Info("publisher stopped", "deviceId", deviceID, "type", kind)
				return
			}
		}
	}()
}
