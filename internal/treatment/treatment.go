// v0
// internal/treatment/treatment.go
package treatment

// Config carries the design removal fractions and effluent limits for one
// secondary treatment stage.
type Config struct {
	DesignBODRemoval float64 // fraction at full oxygen supply
	DesignTSSRemoval float64
	BODLimitMgL      float64
	TSSLimitMgL      float64
}

// DefaultConfig mirrors a conventional activated-sludge stage: 95% BOD and
// 90% TSS removal at design oxygen supply, 30/30 mg/L effluent limits.
func DefaultConfig() Config {
	return Config{DesignBODRemoval: 0.95, DesignTSSRemoval: 0.90, BODLimitMgL: 30, TSSLimitMgL: 30}
}

// Result is the estimated stage performance for one control cycle.
type Result struct {
	BODRemoval     float64 `json:"bodRemoval"`
	TSSRemoval     float64 `json:"tssRemoval"`
	EffluentBODMgL float64 `json:"effluentBodMgL"`
	EffluentTSSMgL float64 `json:"effluentTssMgL"`
	SupplyRatio    float64 `json:"supplyRatio"`
	Compliant      bool    `json:"compliant"`
}

// Evaluate scales the design removal fractions by how much of the oxygen
// demand the delivered airflow actually covers. A fully starved stage removes
// nothing; supply beyond demand buys nothing extra. Inputs clamp rather than
// error, matching the rest of the control math.
func Evaluate(influentBODMgL, influentTSSMgL, deliveredAirflowM3h, demandAirflowM3h float64, cfg Config) Result {
	if influentBODMgL < 0 {
		influentBODMgL = 0
	}
	if influentTSSMgL < 0 {
		influentTSSMgL = 0
	}

	ratio := 1.0
	if demandAirflowM3h > 0 {
		ratio = deliveredAirflowM3h / demandAirflowM3h
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
	}

	res := Result{
		BODRemoval:  cfg.DesignBODRemoval * ratio,
		TSSRemoval:  cfg.DesignTSSRemoval * ratio,
		SupplyRatio: ratio,
	}
	res.EffluentBODMgL = influentBODMgL * (1 - res.BODRemoval)
	res.EffluentTSSMgL = influentTSSMgL * (1 - res.TSSRemoval)
	res.Compliant = res.EffluentBODMgL <= cfg.BODLimitMgL && res.EffluentTSSMgL <= cfg.TSSLimitMgL
	return res
}
