// v0
// internal/intake/intake_test.go
package intake

import (
	"math"
	"testing"
)

func TestRecoveryBasics(t *testing.T) {
	if got := Recovery(45, 100); math.Abs(got-0.45) > 1e-9 {
		t.Fatalf("recovery=%.4f want 0.45", got)
	}
	if got := Recovery(10, 0); got != 0 {
		t.Fatalf("zero feed should read zero recovery, got %.4f", got)
	}
	if got := Recovery(-5, 100); got != 0 {
		t.Fatalf("negative permeate should read zero, got %.4f", got)
	}
	if got := Recovery(150, 100); got != 1 {
		t.Fatalf("recovery should clamp at 1, got %.4f", got)
	}
}

func TestEvaluateAlarms(t *testing.T) {
	cfg := DefaultConfig()

	healthy := Evaluate(45, 100, 12, cfg)
	if !healthy.Healthy || healthy.LowRecovery || healthy.OverPressure {
		t.Fatalf("expected healthy train: %+v", healthy)
	}

	low := Evaluate(20, 100, 12, cfg)
	if !low.LowRecovery || low.Healthy {
		t.Fatalf("expected low-recovery alarm: %+v", low)
	}

	hot := Evaluate(45, 100, 18, cfg)
	if !hot.OverPressure || hot.Healthy {
		t.Fatalf("expected over-pressure alarm: %+v", hot)
	}
}
