// v0
// internal/plan/plan.go
package plan

import (
	"log/slog"
	"time"

	"plantops/internal/aeration"
	"plantops/internal/analyze"
	"plantops/internal/config"
	"plantops/internal/dosing"
	"plantops/internal/models"
)

// Plan turns an analysis result into concrete actuator commands: one per
// blower in the tank's bank (the load distributor decides which run and how
// fast) plus a dosing command when a pump should move.
type Plan struct {
	cfg *config.AppConfig
	lg  *slog.Logger
}

func New(cfg *config.AppConfig, lg *slog.Logger) *Plan { return &Plan{cfg: cfg, lg: lg} }

// Decision bundles everything one cycle hands to the execute step.
type Decision struct {
	Blowers []models.BlowerCommand
	Fleet   []aeration.Blower
	Dose    *models.DoseCommand
	Ledger  models.LedgerEvent
}

func (p *Plan) Build(tank string, epochIndex int64, res analyze.Result) Decision {
	fleet := aeration.Distribute(res.RequiredAirflowM3h, p.cfg.Fleet)
	now := time.Now().UnixMilli()

	cmds := make([]models.BlowerCommand, 0, len(fleet))
	for _, b := range fleet {
		cmds = append(cmds, models.BlowerCommand{
			TankID:       tank,
			BlowerID:     b.ID,
			Enabled:      b.Enabled,
			SpeedPercent: b.SpeedPercent,
			Reason:       res.Reason,
			EpochIndex:   epochIndex,
			IssuedAt:     now,
		})
	}

	var dose *models.DoseCommand
	if res.Dose.Chemical != dosing.ChemicalNone {
		dose = &models.DoseCommand{
			TankID:     tank,
			Chemical:   string(res.Dose.Chemical),
			RateLPH:    res.Dose.RateLPH,
			Reason:     res.Dose.Reason,
			EpochIndex: epochIndex,
			IssuedAt:   now,
		}
	}

	on := aeration.EnabledCount(fleet)
	power := aeration.TotalPowerKW(fleet)
	p.lg.Info("plan", "tank", tank, "action", res.Action,
		"requiredAirflow", res.RequiredAirflowM3h, "blowersOn", on, "powerKW", power,
		"dose", string(res.Dose.Chemical))

	led := models.LedgerEvent{
		EpochIndex:         epochIndex,
		TankID:             tank,
		DOMgL:              res.DOMgL,
		TargetMgL:          res.Target,
		DeficitMgL:         res.Deficit,
		RequiredAirflowM3h: res.RequiredAirflowM3h,
		BlowersOn:          on,
		TotalPowerKW:       power,
		Dosing:             string(res.Dose.Chemical),
		Reason:             res.Reason,
		Timestamp:          now,
	}
	return Decision{Blowers: cmds, Fleet: fleet, Dose: dose, Ledger: led}
}
