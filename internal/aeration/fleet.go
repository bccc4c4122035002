// v0
// internal/aeration/fleet.go
package aeration

import "fmt"

// FleetConfig describes a bank of identical aeration blowers serving one tank.
// The zero value is not usable directly; callers either start from
// DefaultFleetConfig or rely on the normalization Distribute applies.
type FleetConfig struct {
	NumBlowers           int
	MaxAirflowM3h        float64
	MinEfficientSpeedPct float64
	MaxPowerKW           float64
	PowerExponent        float64
}

// DefaultFleetConfig returns the plant's stock blower bank: three units,
// 1000 m3/h each, 20% minimum efficient speed, 75 kW at full speed.
func DefaultFleetConfig() FleetConfig {
	return FleetConfig{
		NumBlowers:           3,
		MaxAirflowM3h:        1000,
		MinEfficientSpeedPct: 20,
		MaxPowerKW:           75,
		PowerExponent:        2.8,
	}
}

// normalized fills in defaults for unset fields so the distribution math
// stays total over its input domain.
func (c FleetConfig) normalized() FleetConfig {
	d := DefaultFleetConfig()
	if c.NumBlowers <= 0 {
		c.NumBlowers = d.NumBlowers
	}
	if c.MaxAirflowM3h <= 0 {
		c.MaxAirflowM3h = d.MaxAirflowM3h
	}
	if c.MinEfficientSpeedPct <= 0 {
		c.MinEfficientSpeedPct = d.MinEfficientSpeedPct
	}
	if c.MaxPowerKW <= 0 {
		c.MaxPowerKW = d.MaxPowerKW
	}
	if c.PowerExponent <= 0 {
		c.PowerExponent = d.PowerExponent
	}
	return c
}

// TotalCapacityM3h is the airflow the whole bank can deliver at 100% speed.
func (c FleetConfig) TotalCapacityM3h() float64 {
	n := c.normalized()
	return float64(n.NumBlowers) * n.MaxAirflowM3h
}

// Blower is one unit's commanded operating point.
type Blower struct {
	ID           string  `json:"id"`
	Enabled      bool    `json:"enabled"`
	SpeedPercent float64 `json:"speedPercent"`
	AirflowM3h   float64 `json:"airflowM3h"`
	PowerKW      float64 `json:"powerKW"`
}

func blowerID(i int) string { return fmt.Sprintf("BL%02d", i+1) }
