// v1
// internal/analyze/analyze.go
package analyze

import (
	"fmt"
	"log/slog"

	"plantops/internal/config"
	"plantops/internal/dosing"
	"plantops/internal/intake"
	"plantops/internal/models"
	"plantops/internal/setpoints"
	"plantops/internal/treatment"
)

// Action names the aeration decision for a cycle.
const (
	ActionBoost = "BOOST" // DO below band, raise airflow
	ActionHold  = "HOLD"  // within band, keep base airflow
	ActionRest  = "REST"  // DO above band, blowers off
)

type Analyze struct {
	cfg *config.AppConfig
	lg  *slog.Logger
	sp  *setpoints.Store
}

// Result is the analyzer's verdict for one tank and cycle.
type Result struct {
	HasDO              bool
	DOMgL              float64
	Target             float64
	Hyst               float64
	Deficit            float64
	Action             string
	RequiredAirflowM3h float64
	Dose               dosing.Command
	Treatment          treatment.Result
	Intake             *intake.Status
	Reason             string
}

func New(cfg *config.AppConfig, sp *setpoints.Store, lg *slog.Logger) *Analyze {
	return &Analyze{cfg: cfg, lg: lg, sp: sp}
}

// Run turns the latest process sample into an airflow requirement and a
// dosing decision. The DO deficit against the runtime setpoint drives
// airflow: below the hysteresis band the requirement grows linearly with the
// deficit on top of the tank's base demand; above the band the blowers rest;
// inside it the base demand holds.
func (a *Analyze) Run(tank string, sample models.ProcessSample) Result {
	target, ok := a.sp.Get(tank)
	tc, _ := a.cfg.Tank(tank)
	if !ok {
		target = tc.TargetDOMgL
		a.lg.Warn("setpoint missing in store", "tank", tank, "fallback", target)
	}

	res := Result{
		HasDO:   sample.HasDO,
		DOMgL:   sample.DOMgL,
		Target:  target,
		Hyst:    tc.HysteresisMgL,
		Deficit: target - sample.DOMgL,
	}

	if !sample.HasDO {
		res.Action = ActionHold
		res.RequiredAirflowM3h = tc.BaseAirflowM3h
		res.Reason = "no DO reading this cycle; holding base airflow"
	} else {
		switch {
		case res.Deficit > res.Hyst:
			res.Action = ActionBoost
			res.RequiredAirflowM3h = tc.BaseAirflowM3h + tc.AirflowGainM3hPerMgL*res.Deficit
			res.Reason = fmt.Sprintf("DO low by %.2f mg/L", res.Deficit)
		case res.Deficit < -res.Hyst:
			res.Action = ActionRest
			res.RequiredAirflowM3h = 0
			res.Reason = fmt.Sprintf("DO high by %.2f mg/L", -res.Deficit)
		default:
			res.Action = ActionHold
			res.RequiredAirflowM3h = tc.BaseAirflowM3h
			res.Reason = "within hysteresis"
		}
	}

	if sample.HasPH {
		res.Dose = dosing.Plan(sample.PH, a.cfg.Dosing)
	} else {
		res.Dose = dosing.Command{Chemical: dosing.ChemicalNone, Reason: "no pH reading"}
	}

	// Stage performance estimate: what the commanded airflow covers of the
	// tank's ideal demand at the current deficit.
	demand := tc.BaseAirflowM3h
	if res.Deficit > 0 {
		demand += tc.AirflowGainM3hPerMgL * res.Deficit
	}
	// No TSS instrument on the tanks; municipal influent runs close to 1:1
	// BOD:TSS, so BOD stands in for both.
	res.Treatment = treatment.Evaluate(sample.BODMgL, sample.BODMgL, res.RequiredAirflowM3h, demand, a.cfg.Treatment)

	if sample.HasIntake {
		st := intake.Evaluate(sample.PermeateM3h, sample.InflowM3h, sample.PressureBar, a.cfg.Intake)
		res.Intake = &st
		if !st.Healthy {
			a.lg.Warn("intake train alarm", "tank", tank,
				"recovery", st.Recovery, "lowRecovery", st.LowRecovery, "overPressure", st.OverPressure)
		}
	}

	a.lg.Debug("analysis", "tank", tank, "action", res.Action,
		"do", res.DOMgL, "target", res.Target, "airflow", res.RequiredAirflowM3h,
		"dose", res.Dose.Chemical)
	return res
}
