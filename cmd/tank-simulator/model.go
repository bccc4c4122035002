// v1
// cmd/tank-simulator/model.go

package main

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type instrumentKind string

const (
	instrumentDO   instrumentKind = "do_probe"
	instrumentPH   instrumentKind = "ph_probe"
	instrumentFlow instrumentKind = "flow_meter"
)

func uuidv4() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		ts := time.Now().UnixNano()
		for i := 0; i < 8; i++ {
			b[i] = byte(ts >> (8 * i))
		}
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return hex.EncodeToString(b)
}

type blowerState struct {
	enabled bool
	speed   float64
}

type Simulator struct {
	log *slog.Logger
	cfg SimConfig

	mu  sync.Mutex
	do  float64
	ph  float64
	bod float64

	blowers  map[string]blowerState
	doseChem string
	doseRate float64

	lastE time.Time

	doProbeID  string
	phProbeID  string
	flowID     string
	dosePumpID string
}

// airflowFraction is the bank's delivered airflow as a share of its capacity.
// Caller must hold mu.
func (s *Simulator) airflowFraction() float64 {
	if s.cfg.NumBlowers <= 0 {
		return 0
	}
	var sum float64
	for _, b := range s.blowers {
		if b.enabled {
			sum += b.speed
		}
	}
	return sum / (float64(s.cfg.NumBlowers) * 100.0)
}

func (s *Simulator) integrate(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := now.Sub(s.lastE).Hours()
	if s.lastE.IsZero() {
		dt = s.cfg.Step.Hours()
	}

	frac := s.airflowFraction()

	// Oxygen: transfer in from the blowers, uptake out by the biomass.
	s.do += s.cfg.KLa * frac * (s.cfg.DOSatMgL - s.do) * s.cfg.Step.Seconds()
	s.do -= s.cfg.OURMgLPerH * dt
	if s.do < 0 {
		s.do = 0
	}
	if s.do > s.cfg.DOSatMgL {
		s.do = s.cfg.DOSatMgL
	}

	// Organic load: influent adds, aeration removes.
	s.bod += s.cfg.BODLoadMgLH * dt
	s.bod -= s.cfg.BODRemovalMgLH * frac * dt
	if s.bod < 0 {
		s.bod = 0
	}

	// pH: drifts toward the influent, moved by the dosing pump.
	s.ph += s.cfg.PHDrift * (s.cfg.InfluentPH - s.ph) * s.cfg.Step.Seconds()
	switch s.doseChem {
	case "ACID":
		s.ph -= s.cfg.DoseEffectPH * s.doseRate * dt
	case "ALKALI":
		s.ph += s.cfg.DoseEffectPH * s.doseRate * dt
	}
	if s.ph < 0 {
		s.ph = 0
	}
	if s.ph > 14 {
		s.ph = 14
	}

	s.lastE = now
}

func (s *Simulator) snapshot() (do, ph, bod, flow float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do, s.ph, s.bod, s.cfg.InflowM3h
}

func (s *Simulator) setBlower(id string, enabled bool, speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if speed < 0 {
		speed = 0
	}
	if speed > 100 {
		speed = 100
	}
	s.blowers[id] = blowerState{enabled: enabled, speed: speed}
	s.log.Info("blower set", "blowerId", id, "enabled", enabled, "speed", speed)
}

func (s *Simulator) setDose(chem string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up := strings.ToUpper(chem)
	if up != "ACID" && up != "ALKALI" && up != "NONE" {
		s.log.Warn("invalid dosing chemical", "chemical", chem)
		return
	}
	if rate < 0 {
		rate = 0
	}
	if up == "NONE" {
		rate = 0
	}
	s.doseChem = up
	s.doseRate = rate
	s.log.Info("dosing set", "chemical", s.doseChem, "rateLph", s.doseRate)
}

func (s *Simulator) blowerSnapshot() map[string]blowerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]blowerState, len(s.blowers))
	for id, b := range s.blowers {
		out[id] = b
	}
	return out
}
