// v0
// internal/aeration/power.go
package aeration

import "math"

// PowerKW estimates a blower's electrical draw at the given commanded speed.
// The curve is the fan-power law with an empirical exponent: rated power
// scaled by (speed/100)^PowerExponent. Zero or negative speed draws nothing.
func PowerKW(speedPct float64, cfg FleetConfig) float64 {
	if speedPct <= 0 {
		return 0
	}
	cfg = cfg.normalized()
	if speedPct > 100 {
		speedPct = 100
	}
	return cfg.MaxPowerKW * math.Pow(speedPct/100, cfg.PowerExponent)
}

// TotalPowerKW sums the draw of an assignment, counting only enabled units.
func TotalPowerKW(fleet []Blower) float64 {
	var sum float64
	for _, b := range fleet {
		if b.Enabled {
			sum += b.PowerKW
		}
	}
	return sum
}

// TotalAirflowM3h sums delivered airflow across enabled units.
func TotalAirflowM3h(fleet []Blower) float64 {
	var sum float64
	for _, b := range fleet {
		if b.Enabled {
			sum += b.AirflowM3h
		}
	}
	return sum
}

// EnabledCount reports how many units of an assignment are running.
func EnabledCount(fleet []Blower) int {
	n := 0
	for _, b := range fleet {
		if b.Enabled {
			n++
		}
	}
	return n
}
