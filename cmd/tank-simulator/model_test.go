// v0
// cmd/tank-simulator/model_test.go

package main

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestSim() *Simulator {
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := SimConfig{
		TankID:         "tank-A",
		Step:           time.Second,
		DOSatMgL:       9.1,
		KLa:            0.08,
		OURMgLPerH:     35,
		InfluentPH:     6.5,
		PHDrift:        0.001,
		DoseEffectPH:   0.004,
		BODLoadMgLH:    12,
		BODRemovalMgLH: 40,
		InflowM3h:      320,
		NumBlowers:     3,
	}
	return &Simulator{
		log: lg, cfg: cfg,
		do: 2.0, ph: 6.8, bod: 220,
		blowers:  map[string]blowerState{"BL01": {}, "BL02": {}, "BL03": {}},
		doseChem: "NONE",
	}
}

func TestAerationRaisesDissolvedOxygen(t *testing.T) {
	sim := newTestSim()
	sim.setBlower("BL01", true, 100)
	sim.setBlower("BL02", true, 100)
	sim.setBlower("BL03", true, 100)

	start := time.Now()
	sim.lastE = start
	for i := 1; i <= 30; i++ {
		sim.integrate(start.Add(time.Duration(i) * time.Second))
	}
	do, _, _, _ := sim.snapshot()
	if do <= 2.0 {
		t.Fatalf("DO should rise under full aeration, got %.3f", do)
	}
	if do > sim.cfg.DOSatMgL {
		t.Fatalf("DO exceeded saturation: %.3f", do)
	}
}

func TestNoAerationDepletesOxygen(t *testing.T) {
	sim := newTestSim()
	start := time.Now()
	sim.lastE = start
	for i := 1; i <= 30; i++ {
		sim.integrate(start.Add(time.Duration(i) * time.Second))
	}
	do, _, _, _ := sim.snapshot()
	if do >= 2.0 {
		t.Fatalf("DO should fall without aeration, got %.3f", do)
	}
	if do < 0 {
		t.Fatalf("DO went negative: %.3f", do)
	}
}

func TestSetBlowerClampsSpeed(t *testing.T) {
	sim := newTestSim()
	sim.setBlower("BL01", true, 140)
	if got := sim.blowerSnapshot()["BL01"].speed; got != 100 {
		t.Fatalf("speed not clamped: %.1f", got)
	}
	sim.setBlower("BL01", true, -5)
	if got := sim.blowerSnapshot()["BL01"].speed; got != 0 {
		t.Fatalf("negative speed not clamped: %.1f", got)
	}
}

func TestSetDoseRejectsUnknownChemical(t *testing.T) {
	sim := newTestSim()
	sim.setDose("ACID", 50)
	sim.setDose("CHLORINE", 90)
	sim.mu.Lock()
	chem, rate := sim.doseChem, sim.doseRate
	sim.mu.Unlock()
	if chem != "ACID" || rate != 50 {
		t.Fatalf("invalid chemical mutated state: %s %.1f", chem, rate)
	}
}

func TestApplyCommandFiltersByTank(t *testing.T) {
	sim := newTestSim()
	sim.applyCommand([]byte(`{"tankId":"tank-B","blowerId":"BL01","enabled":true,"speedPercent":60}`))
	if sim.blowerSnapshot()["BL01"].enabled {
		t.Fatal("command for another tank was applied")
	}
	sim.applyCommand([]byte(`{"tankId":"tank-A","blowerId":"BL01","enabled":true,"speedPercent":60}`))
	b := sim.blowerSnapshot()["BL01"]
	if !b.enabled || b.speed != 60 {
		t.Fatalf("blower command not applied: %+v", b)
	}
	sim.applyCommand([]byte(`{"tankId":"tank-A","chemical":"ALKALI","rateLph":30}`))
	sim.mu.Lock()
	chem, rate := sim.doseChem, sim.doseRate
	sim.mu.Unlock()
	if chem != "ALKALI" || rate != 30 {
		t.Fatalf("dose command not applied: %s %.1f", chem, rate)
	}
}
