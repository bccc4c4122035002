// v0
// internal/aeration/distributor_test.go
package aeration

import (
	"math"
	"testing"
)

func TestDistributeZeroDemandDisablesBank(t *testing.T) {
	cfg := DefaultFleetConfig()
	for _, demand := range []float64{0, -1, 1e-9} {
		fleet := Distribute(demand, cfg)
		if len(fleet) != cfg.NumBlowers {
			t.Fatalf("demand=%v: fleet size %d want %d", demand, len(fleet), cfg.NumBlowers)
		}
		for _, b := range fleet {
			if b.Enabled || b.SpeedPercent != 0 || b.AirflowM3h != 0 || b.PowerKW != 0 {
				t.Fatalf("demand=%v: blower %s not idle: %+v", demand, b.ID, b)
			}
		}
	}
}

func TestDistributeSingleBlowerScenario(t *testing.T) {
	fleet := Distribute(800, DefaultFleetConfig())
	if got := EnabledCount(fleet); got != 1 {
		t.Fatalf("enabled count=%d want 1", got)
	}
	b := fleet[0]
	if !b.Enabled {
		t.Fatalf("first blower should carry the load, got %+v", fleet)
	}
	if math.Abs(b.SpeedPercent-80) > 1e-9 {
		t.Fatalf("speed=%.6f want 80", b.SpeedPercent)
	}
	if math.Abs(b.AirflowM3h-800) > 1e-9 {
		t.Fatalf("airflow=%.6f want 800", b.AirflowM3h)
	}
	for _, rest := range fleet[1:] {
		if rest.Enabled || rest.SpeedPercent != 0 {
			t.Fatalf("blower %s should be off: %+v", rest.ID, rest)
		}
	}
}

func TestDistributeUnderloadLeavesBankOff(t *testing.T) {
	// 150 m3/h on a 1000 m3/h unit would mean 15% speed, below the 20%
	// efficiency floor, so the bank waits for more demand.
	fleet := Distribute(150, DefaultFleetConfig())
	if got := EnabledCount(fleet); got != 0 {
		t.Fatalf("enabled count=%d want 0, fleet=%+v", got, fleet)
	}
}

func TestDistributeOverloadRunsEverythingFlatOut(t *testing.T) {
	cfg := DefaultFleetConfig()
	fleet := Distribute(3500, cfg)
	if got := EnabledCount(fleet); got != cfg.NumBlowers {
		t.Fatalf("enabled count=%d want %d", got, cfg.NumBlowers)
	}
	for _, b := range fleet {
		if b.SpeedPercent != 100 {
			t.Fatalf("blower %s speed=%.2f want 100", b.ID, b.SpeedPercent)
		}
		if math.Abs(b.AirflowM3h-cfg.MaxAirflowM3h) > 1e-9 {
			t.Fatalf("blower %s airflow=%.2f want %.2f", b.ID, b.AirflowM3h, cfg.MaxAirflowM3h)
		}
	}
}

func TestDistributeMinimalCountAndMonotonicSpeed(t *testing.T) {
	cfg := DefaultFleetConfig()
	prev := 0.0
	for demand := 200.0; demand <= 1000.0; demand += 50 {
		fleet := Distribute(demand, cfg)
		if got := EnabledCount(fleet); got != 1 {
			t.Fatalf("demand=%.0f: enabled count=%d want 1", demand, got)
		}
		if fleet[0].SpeedPercent <= prev {
			t.Fatalf("demand=%.0f: speed %.4f not increasing past %.4f", demand, fleet[0].SpeedPercent, prev)
		}
		prev = fleet[0].SpeedPercent
	}
}

func TestDistributeRespectsEfficiencyFloor(t *testing.T) {
	cfg := DefaultFleetConfig()
	for demand := -100.0; demand <= 3200.0; demand += 13.7 {
		fleet := Distribute(demand, cfg)
		for _, b := range fleet {
			if b.Enabled && b.SpeedPercent < cfg.MinEfficientSpeedPct {
				t.Fatalf("demand=%.1f: blower %s below floor at %.2f%%", demand, b.ID, b.SpeedPercent)
			}
		}
	}
}

func TestDistributeConservesAirflow(t *testing.T) {
	cfg := DefaultFleetConfig()
	for _, demand := range []float64{250, 600, 999.9, 1000, 1500, 2200, 2999} {
		fleet := Distribute(demand, cfg)
		if EnabledCount(fleet) == 0 {
			t.Fatalf("demand=%.1f: expected a feasible assignment", demand)
		}
		got := TotalAirflowM3h(fleet)
		if math.Abs(got-demand) > 1e-6 {
			t.Fatalf("demand=%.1f: delivered %.6f", demand, got)
		}
	}
}

func TestDistributeSplitsAcrossUnitsWhenOneCannot(t *testing.T) {
	cfg := DefaultFleetConfig()
	fleet := Distribute(1600, cfg)
	if got := EnabledCount(fleet); got != 2 {
		t.Fatalf("enabled count=%d want 2", got)
	}
	for _, b := range fleet[:2] {
		if math.Abs(b.SpeedPercent-80) > 1e-9 {
			t.Fatalf("blower %s speed=%.4f want 80", b.ID, b.SpeedPercent)
		}
	}
	if fleet[2].Enabled {
		t.Fatalf("third blower should stay off: %+v", fleet[2])
	}
}

func TestDistributeActivatesInBankOrder(t *testing.T) {
	fleet := Distribute(2500, DefaultFleetConfig())
	wantIDs := []string{"BL01", "BL02", "BL03"}
	for i, b := range fleet {
		if b.ID != wantIDs[i] {
			t.Fatalf("position %d: id=%s want %s", i, b.ID, wantIDs[i])
		}
	}
	seenDisabled := false
	for _, b := range fleet {
		if !b.Enabled {
			seenDisabled = true
		} else if seenDisabled {
			t.Fatalf("enabled unit after a disabled one: %+v", fleet)
		}
	}
}

func TestDistributeNormalizesZeroConfig(t *testing.T) {
	fleet := Distribute(800, FleetConfig{})
	if len(fleet) != 3 {
		t.Fatalf("fleet size=%d want defaults applied", len(fleet))
	}
	if got := EnabledCount(fleet); got != 1 {
		t.Fatalf("enabled count=%d want 1", got)
	}
}
