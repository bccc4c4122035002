// v0
// internal/models/models.go

// Package models holds the wire types shared by the control service, the
// tank simulator and the field gateway.
package models

import "time"

// InstrumentType tags a telemetry reading with the device class it came from.
type InstrumentType string

const (
	InstrumentDO       InstrumentType = "do_probe"
	InstrumentPH       InstrumentType = "ph_probe"
	InstrumentFlow     InstrumentType = "flow_meter"
	InstrumentBlower   InstrumentType = "act_blower"
	InstrumentDosePump InstrumentType = "act_dosing"
)

// Reading is the envelope every telemetry message travels in.
type Reading struct {
	DeviceID   string         `json:"deviceId"`
	DeviceType InstrumentType `json:"deviceType"`
	TankID     string         `json:"tankId"`
	Timestamp  time.Time      `json:"timestamp"`
	Reading    any            `json:"reading"`
}

// ProcessSample is the per-tank process view the analyzer works from. The
// monitor assembles it from the latest instrument readings of a tank.
type ProcessSample struct {
	DOMgL      float64 `json:"doMgL"`
	PH         float64 `json:"ph"`
	BODMgL     float64 `json:"bodMgL"`
	InflowM3h  float64 `json:"inflowM3h"`
	// Intake train metrics ride on the flow-meter reading when the plant
	// meters its RO feed side.
	PermeateM3h float64 `json:"permeateM3h"`
	PressureBar float64 `json:"pressureBar"`
	HasDO       bool    `json:"hasDo"`
	HasPH       bool    `json:"hasPh"`
	HasIntake   bool    `json:"hasIntake"`
	ObservedAt  int64   `json:"observedAt"`
}

// BlowerCommand drives one blower of a tank's bank.
type BlowerCommand struct {
	TankID       string  `json:"tankId"`
	BlowerID     string  `json:"blowerId"`
	Enabled      bool    `json:"enabled"`
	SpeedPercent float64 `json:"speedPercent"`
	Reason       string  `json:"reason"`
	EpochIndex   int64   `json:"epochIndex"`
	IssuedAt     int64   `json:"issuedAt"`
}

// DoseCommand drives a tank's dosing pump.
type DoseCommand struct {
	TankID     string  `json:"tankId"`
	Chemical   string  `json:"chemical"`
	RateLPH    float64 `json:"rateLph"`
	Reason     string  `json:"reason"`
	EpochIndex int64   `json:"epochIndex"`
	IssuedAt   int64   `json:"issuedAt"`
}

// LedgerEvent records one control decision for the history store and the
// ledger topic.
type LedgerEvent struct {
	EpochIndex         int64   `json:"epochIndex"`
	TankID             string  `json:"tankId"`
	DOMgL              float64 `json:"doMgL"`
	TargetMgL          float64 `json:"targetMgL"`
	DeficitMgL         float64 `json:"deficitMgL"`
	RequiredAirflowM3h float64 `json:"requiredAirflowM3h"`
	BlowersOn          int     `json:"blowersOn"`
	TotalPowerKW       float64 `json:"totalPowerKW"`
	Dosing             string  `json:"dosing"`
	Reason             string  `json:"reason"`
	Timestamp          int64   `json:"timestamp"`
}
