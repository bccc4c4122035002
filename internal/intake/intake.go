// v0
// internal/intake/intake.go
package intake

// Config holds the alarm thresholds for a reverse-osmosis intake train.
type Config struct {
	MinRecovery    float64 // fraction below which the membrane is suspect
	MaxPressureBar float64
}

// DefaultConfig uses typical brackish-water RO figures.
func DefaultConfig() Config {
	return Config{MinRecovery: 0.35, MaxPressureBar: 16}
}

// Status summarizes one evaluation of the train.
type Status struct {
	Recovery     float64 `json:"recovery"`
	LowRecovery  bool    `json:"lowRecovery"`
	OverPressure bool    `json:"overPressure"`
	Healthy      bool    `json:"healthy"`
}

// Recovery is the fraction of feed water that emerges as usable permeate.
// Zero or negative feed reads as zero recovery; the result clamps to [0,1]
// so a miscalibrated flow meter cannot report an impossible train.
func Recovery(permeateM3h, feedM3h float64) float64 {
	if feedM3h <= 0 || permeateM3h <= 0 {
		return 0
	}
	r := permeateM3h / feedM3h
	if r > 1 {
		return 1
	}
	return r
}

// Evaluate derives the train status from current flows and feed pressure.
func Evaluate(permeateM3h, feedM3h, pressureBar float64, cfg Config) Status {
	s := Status{Recovery: Recovery(permeateM3h, feedM3h)}
	s.LowRecovery = s.Recovery < cfg.MinRecovery
	s.OverPressure = pressureBar > cfg.MaxPressureBar
	s.Healthy = !s.LowRecovery && !s.OverPressure
	return s
}
