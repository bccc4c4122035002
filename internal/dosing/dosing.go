// v0
// internal/dosing/dosing.go
package dosing

// Chemical identifies which dosing pump a command drives.
type Chemical string

const (
	ChemicalNone   Chemical = "NONE"
	ChemicalAcid   Chemical = "ACID"
	ChemicalAlkali Chemical = "ALKALI"
)

// Config holds the pH correction tunables for one tank.
type Config struct {
	TargetPH     float64
	DeadbandPH   float64
	GainLPerHPH  float64 // pump rate per unit of pH deviation
	MaxRateLPerH float64
}

// DefaultConfig returns the stock dosing setup: neutral target, 0.3 pH
// deadband, 40 L/h of correction per pH unit, 120 L/h pump ceiling.
func DefaultConfig() Config {
	return Config{TargetPH: 7.0, DeadbandPH: 0.3, GainLPerHPH: 40, MaxRateLPerH: 120}
}

// Command is the dosing decision for one control cycle.
type Command struct {
	Chemical Chemical `json:"chemical"`
	RateLPH  float64  `json:"rateLph"`
	Reason   string   `json:"reason"`
}

// Plan picks the chemical and pump rate for the measured pH. Inside the
// deadband no pump runs. Outside it, the rate grows with the deviation and
// clamps at the pump ceiling. The measurement itself is clamped to the 0..14
// scale first so sensor glitches cannot command absurd rates.
func Plan(measuredPH float64, cfg Config) Command {
	if cfg.GainLPerHPH <= 0 || cfg.MaxRateLPerH <= 0 {
		d := DefaultConfig()
		if cfg.GainLPerHPH <= 0 {
			cfg.GainLPerHPH = d.GainLPerHPH
		}
		if cfg.MaxRateLPerH <= 0 {
			cfg.MaxRateLPerH = d.MaxRateLPerH
		}
	}
	if measuredPH < 0 {
		measuredPH = 0
	}
	if measuredPH > 14 {
		measuredPH = 14
	}

	delta := measuredPH - cfg.TargetPH
	if delta >= -cfg.DeadbandPH && delta <= cfg.DeadbandPH {
		return Command{Chemical: ChemicalNone, Reason: "within deadband"}
	}

	rate := cfg.GainLPerHPH * abs(delta)
	if rate > cfg.MaxRateLPerH {
		rate = cfg.MaxRateLPerH
	}
	if delta > 0 {
		return Command{Chemical: ChemicalAcid, RateLPH: rate, Reason: "pH above target"}
	}
	return Command{Chemical: ChemicalAlkali, RateLPH: rate, Reason: "pH below target"}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
