// v1
// cmd/tank-simulator/config.go

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type SimConfig struct {
	TankID     string
	ListenAddr string

	// Process model
	Step           time.Duration
	DOSatMgL       float64
	KLa            float64 // oxygen transfer per unit airflow fraction
	OURMgLPerH     float64 // oxygen uptake by the biomass
	InitialDOMgL   float64
	InitialPH      float64
	InitialBODMgL  float64
	InfluentPH     float64
	PHDrift        float64
	DoseEffectPH   float64 // pH change per L dosed
	BODLoadMgLH    float64
	BODRemovalMgLH float64
	InflowM3h      float64

	// Blower bank mirrored from the control service
	NumBlowers int

	// Per-instrument publish rates
	DORate   time.Duration
	PHRate   time.Duration
	FlowRate time.Duration

	// Device IDs (can be provided in properties)
	DOProbeID  string
	PHProbeID  string
	FlowID     string
	DosePumpID string

	// Kafka
	KafkaBrokers       []string
	TopicReadingPrefix string
	TopicCommandPrefix string
}

func loadProps(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load properties file: %w", err)
	}
	m := map[string]string{}
	for _, ln := range strings.Split(string(b), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "//") {
			continue
		}
		kv := strings.SplitN(ln, "=", 2)
		if len(kv) != 2 {
			continue
		}
		m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return m, nil
}

func getf(m map[string]string, key string, def float64, log *slog.Logger) float64 {
	if v, ok := m[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn("invalid float in properties, using default", "key", key, "val", m[key], "default", def)
	}
	return def
}

func geti(m map[string]string, key string, def int, log *slog.Logger) int {
	if v, ok := m[key]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Warn("invalid int in properties, using default", "key", key, "val", m[key], "default", def)
	}
	return def
}

func getd(m map[string]string, key string, def time.Duration, log *slog.Logger) time.Duration {
	if v, ok := m[key]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn("invalid duration in properties, using default", "key", key, "val", m[key], "default", def)
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func buildConfig(log *slog.Logger) (SimConfig, error) {
	propsPath := os.Getenv("SIM_PROPERTIES")
	if propsPath == "" {
		return SimConfig{}, errors.New("SIM_PROPERTIES env var not set")
	}
	props, err := loadProps(propsPath)
	if err != nil {
		return SimConfig{}, err
	}

	tank := props["tankId"]
	addr := props["listen_addr"]
	if tank == "" || addr == "" {
		return SimConfig{}, errors.New("properties must include tankId and listen_addr")
	}

	cfg := SimConfig{
		TankID:     tank,
		ListenAddr: addr,

		Step:           getd(props, "step", time.Second, log),
		DOSatMgL:       getf(props, "do_sat_mgl", 9.1, log),
		KLa:            getf(props, "kla", 0.08, log),
		OURMgLPerH:     getf(props, "our_mgl_per_h", 35, log),
		InitialDOMgL:   getf(props, "initial_do_mgl", 1.5, log),
		InitialPH:      getf(props, "initial_ph", 6.8, log),
		InitialBODMgL:  getf(props, "initial_bod_mgl", 220, log),
		InfluentPH:     getf(props, "influent_ph", 6.5, log),
		PHDrift:        getf(props, "ph_drift", 0.001, log),
		DoseEffectPH:   getf(props, "dose_effect_ph", 0.004, log),
		BODLoadMgLH:    getf(props, "bod_load_mgl_per_h", 12, log),
		BODRemovalMgLH: getf(props, "bod_removal_mgl_per_h", 40, log),
		InflowM3h:      getf(props, "inflow_m3h", 320, log),

		NumBlowers: geti(props, "num_blowers", 3, log),

		DORate:   getd(props, "do_rate", 2*time.Second, log),
		PHRate:   getd(props, "ph_rate", 5*time.Second, log),
		FlowRate: getd(props, "flow_rate", 5*time.Second, log),
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		brokersEnv = "kafka:9092"
	}
	readingsPrefix := os.Getenv("TOPIC_READINGS_PREFIX")
	if readingsPrefix == "" {
		readingsPrefix = "plant.readings"
	}
	commandPrefix := os.Getenv("TOPIC_COMMANDS_PREFIX")
	if commandPrefix == "" {
		commandPrefix = "plant.commands"
	}
	cfg.KafkaBrokers = splitCSV(brokersEnv)
	cfg.TopicReadingPrefix = readingsPrefix
	cfg.TopicCommandPrefix = commandPrefix

	if v, ok := props["device.doProbeId"]; ok && v != "" {
		cfg.DOProbeID = v
	}
	if v, ok := props["device.phProbeId"]; ok && v != "" {
		cfg.PHProbeID = v
	}
	if v, ok := props["device.flowId"]; ok && v != "" {
		cfg.FlowID = v
	}
	if v, ok := props["device.dosePumpId"]; ok && v != "" {
		cfg.DosePumpID = v
	}

	return cfg, nil
}

// RateForType picks the right per-instrument sampling rate.
func (c *SimConfig) RateForType(t instrumentKind) time.Duration {
	ret := time.Second
	switch t {
	case instrumentDO:
		ret = c.DORate
	case instrumentPH:
		ret = c.PHRate
	case instrumentFlow:
		ret = c.FlowRate
	}
	return ret
}
