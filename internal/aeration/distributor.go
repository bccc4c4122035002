// v1
// internal/aeration/distributor.go
package aeration

// Distribute decides how many blowers to run and at what speed to deliver
// totalAirflowM3h, minimizing the number of active units while keeping every
// active unit at or above the minimum efficient speed.
//
// The search walks candidate unit counts from 1 upward and stops at the first
// count whose per-unit speed clears the efficiency floor, so the smallest
// viable count always wins. Units are activated in fixed bank order; there is
// no wear-leveling rotation.
//
// Two fallbacks handle requirements the search cannot satisfy:
//   - demand above the bank's total capacity runs every unit at 100%,
//     ignoring the efficiency floor (overload)
//   - demand too small to run even one unit efficiently leaves the whole
//     bank off until demand justifies starting a unit
//
// The function is total: negative, zero and oversized inputs all yield a
// well-defined assignment and no error.
func Distribute(totalAirflowM3h float64, cfg FleetConfig) []Blower {
	cfg = cfg.normalized()
	fleet := idleFleet(cfg)

	if totalAirflowM3h < airflowEpsilon {
		return fleet
	}

	for n := 1; n <= cfg.NumBlowers; n++ {
		perUnit := totalAirflowM3h / float64(n)
		if perUnit > cfg.MaxAirflowM3h+capacityTolerance {
			continue
		}
		speed := clampPct(perUnit / cfg.MaxAirflowM3h * 100)
		if speed < cfg.MinEfficientSpeedPct {
			continue
		}
		for i := 0; i < n; i++ {
			runAt(&fleet[i], speed, cfg)
		}
		return fleet
	}

	if totalAirflowM3h > cfg.TotalCapacityM3h()+capacityTolerance {
		// Overload: every unit flat out, efficiency floor does not apply.
		for i := range fleet {
			runAt(&fleet[i], 100, cfg)
		}
	}
	return fleet
}

const (
	// Requirements below this are treated as zero demand.
	airflowEpsilon = 1e-6
	// Slack on per-unit and total capacity comparisons so that demands at
	// exactly rated capacity are not rejected by floating-point noise.
	capacityTolerance = 1e-6
)

func idleFleet(cfg FleetConfig) []Blower {
	fleet := make([]Blower, cfg.NumBlowers)
	for i := range fleet {
		fleet[i].ID = blowerID(i)
	}
	return fleet
}

func runAt(b *Blower, speedPct float64, cfg FleetConfig) {
	b.Enabled = true
	b.SpeedPercent = speedPct
	b.AirflowM3h = speedPct / 100 * cfg.MaxAirflowM3h
	b.PowerKW = PowerKW(speedPct, cfg)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
