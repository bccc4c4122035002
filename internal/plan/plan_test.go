// v0
// internal/plan/plan_test.go
package plan

import (
	"io"
	"log/slog"
	"testing"

	"plantops/internal/aeration"
	"plantops/internal/analyze"
	"plantops/internal/config"
	"plantops/internal/dosing"
)

func testPlan() *Plan {
	cfg := &config.AppConfig{
		Fleet: aeration.DefaultFleetConfig(),
		Tanks: []config.TankConfig{{ID: "tank-A"}},
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildEmitsOneCommandPerBlower(t *testing.T) {
	p := testPlan()
	dec := p.Build("tank-A", 7, analyze.Result{
		Action: analyze.ActionBoost, RequiredAirflowM3h: 800, Reason: "DO low",
		Dose: dosing.Command{Chemical: dosing.ChemicalNone},
	})
	if len(dec.Blowers) != 3 {
		t.Fatalf("commands=%d want one per configured blower", len(dec.Blowers))
	}
	if !dec.Blowers[0].Enabled || dec.Blowers[0].SpeedPercent != 80 {
		t.Fatalf("first blower should run at 80%%: %+v", dec.Blowers[0])
	}
	for _, cmd := range dec.Blowers[1:] {
		if cmd.Enabled {
			t.Fatalf("only the first blower should run: %+v", cmd)
		}
	}
	if dec.Dose != nil {
		t.Fatalf("no dosing expected: %+v", dec.Dose)
	}
	if dec.Ledger.BlowersOn != 1 || dec.Ledger.EpochIndex != 7 {
		t.Fatalf("ledger mismatch: %+v", dec.Ledger)
	}
}

func TestBuildIncludesDoseCommand(t *testing.T) {
	p := testPlan()
	dec := p.Build("tank-A", 1, analyze.Result{
		Action: analyze.ActionHold, RequiredAirflowM3h: 300,
		Dose: dosing.Command{Chemical: dosing.ChemicalAlkali, RateLPH: 40, Reason: "pH below target"},
	})
	if dec.Dose == nil || dec.Dose.Chemical != "ALKALI" || dec.Dose.RateLPH != 40 {
		t.Fatalf("dose command missing or wrong: %+v", dec.Dose)
	}
}

func TestBuildOverloadLedger(t *testing.T) {
	p := testPlan()
	dec := p.Build("tank-A", 2, analyze.Result{
		Action: analyze.ActionBoost, RequiredAirflowM3h: 3500, Reason: "DO low",
	})
	if dec.Ledger.BlowersOn != 3 {
		t.Fatalf("overload should run the whole bank: %+v", dec.Ledger)
	}
	for _, cmd := range dec.Blowers {
		if !cmd.Enabled || cmd.SpeedPercent != 100 {
			t.Fatalf("overload command wrong: %+v", cmd)
		}
	}
}
