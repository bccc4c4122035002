// v1
// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"plantops/internal/aeration"
	"plantops/internal/dosing"
	"plantops/internal/intake"
	"plantops/internal/treatment"
)

// TankConfig is one aeration tank from the plant topology file.
type TankConfig struct {
	ID                   string  `yaml:"id"`
	VolumeM3             float64 `yaml:"volumeM3"`
	TargetDOMgL          float64 `yaml:"targetDoMgL"`
	HysteresisMgL        float64 `yaml:"hysteresisMgL"`
	BaseAirflowM3h       float64 `yaml:"baseAirflowM3h"`
	AirflowGainM3hPerMgL float64 `yaml:"airflowGainM3hPerMgL"`
}

type topologyFile struct {
	Plant string       `yaml:"plant"`
	Tanks []TankConfig `yaml:"tanks"`
}

// AppConfig is the full runtime configuration of the control service.
type AppConfig struct {
	ListenAddr   string
	PollInterval time.Duration

	KafkaBrokers        []string
	ReadingsTopicPrefix string
	CommandsTopicPrefix string
	LedgerTopic         string

	HistoryDBPath string

	Fleet     aeration.FleetConfig
	Dosing    dosing.Config
	Treatment treatment.Config
	Intake    intake.Config

	SetpointMinMgL float64
	SetpointMaxMgL float64

	Tanks []TankConfig

	PropertiesPath string
	TopologyPath   string
}

// TankIDs returns the tank identifiers in topology order.
func (c *AppConfig) TankIDs() []string {
	ids := make([]string, 0, len(c.Tanks))
	for _, t := range c.Tanks {
		ids = append(ids, t.ID)
	}
	return ids
}

// SetpointDefaults returns the per-tank DO targets from the topology, the
// initial values for the setpoint store.
func (c *AppConfig) SetpointDefaults() map[string]float64 {
	out := make(map[string]float64, len(c.Tanks))
	for _, t := range c.Tanks {
		out[t.ID] = t.TargetDOMgL
	}
	return out
}

// Tank looks a tank up by id.
func (c *AppConfig) Tank(id string) (TankConfig, bool) {
	for _, t := range c.Tanks {
		if t.ID == id {
			return t, true
		}
	}
	return TankConfig{}, false
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

func gets(m map[string]string, key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
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

// Load reads the properties file named by PLANTOPS_PROPERTIES plus the plant
// topology YAML it points at. Broker and topic settings accept env overrides
// so compose files can rewire the bus without touching properties.
func Load(log *slog.Logger) (*AppConfig, error) {
	propsPath := os.Getenv("PLANTOPS_PROPERTIES")
	if propsPath == "" {
		return nil, errors.New("PLANTOPS_PROPERTIES env var not set")
	}
	return loadFrom(propsPath, log)
}

func loadFrom(propsPath string, log *slog.Logger) (*AppConfig, error) {
	props, err := loadProps(propsPath)
	if err != nil {
		return nil, err
	}

	topoPath := props["topology"]
	if topoPath == "" {
		return nil, errors.New("properties must include topology (path to plant yaml)")
	}
	tanks, err := loadTopology(topoPath)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		ListenAddr:   gets(props, "listen_addr", ":8080"),
		PollInterval: getd(props, "poll_interval", 2*time.Second, log),

		ReadingsTopicPrefix: gets(props, "topic.readings_prefix", "plant.readings"),
		CommandsTopicPrefix: gets(props, "topic.commands_prefix", "plant.commands"),
		LedgerTopic:         gets(props, "topic.ledger", "plant.ledger"),

		HistoryDBPath: gets(props, "history.db_path", "data/plantops.db"),

		Fleet: aeration.FleetConfig{
			NumBlowers:           geti(props, "fleet.num_blowers", 3, log),
			MaxAirflowM3h:        getf(props, "fleet.max_airflow_m3h", 1000, log),
			MinEfficientSpeedPct: getf(props, "fleet.min_efficient_speed_pct", 20, log),
			MaxPowerKW:           getf(props, "fleet.max_power_kw", 75, log),
			PowerExponent:        getf(props, "fleet.power_exponent", 2.8, log),
		},
		Dosing: dosing.Config{
			TargetPH:     getf(props, "dosing.target_ph", 7.0, log),
			DeadbandPH:   getf(props, "dosing.deadband_ph", 0.3, log),
			GainLPerHPH:  getf(props, "dosing.gain_lph_per_ph", 40, log),
			MaxRateLPerH: getf(props, "dosing.max_rate_lph", 120, log),
		},
		Treatment: treatment.Config{
			DesignBODRemoval: getf(props, "treatment.design_bod_removal", 0.95, log),
			DesignTSSRemoval: getf(props, "treatment.design_tss_removal", 0.90, log),
			BODLimitMgL:      getf(props, "treatment.bod_limit_mgl", 30, log),
			TSSLimitMgL:      getf(props, "treatment.tss_limit_mgl", 30, log),
		},
		Intake: intake.Config{
			MinRecovery:    getf(props, "intake.min_recovery", 0.35, log),
			MaxPressureBar: getf(props, "intake.max_pressure_bar", 16, log),
		},

		SetpointMinMgL: getf(props, "setpoint.min_mgl", 0.5, log),
		SetpointMaxMgL: getf(props, "setpoint.max_mgl", 6.0, log),

		Tanks: tanks,

		PropertiesPath: propsPath,
		TopologyPath:   topoPath,
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		brokersEnv = gets(props, "kafka.brokers", "kafka:9092")
	}
	cfg.KafkaBrokers = splitCSV(brokersEnv)

	if v := os.Getenv("TOPIC_READINGS_PREFIX"); v != "" {
		cfg.ReadingsTopicPrefix = v
	}
	if v := os.Getenv("TOPIC_COMMANDS_PREFIX"); v != "" {
		cfg.CommandsTopicPrefix = v
	}
	if v := os.Getenv("TOPIC_LEDGER"); v != "" {
		cfg.LedgerTopic = v
	}

	if len(cfg.Tanks) == 0 {
		return nil, errors.New("topology contains no tanks")
	}
	return cfg, nil
}

func loadTopology(path string) ([]TankConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load topology file: %w", err)
	}
	var topo topologyFile
	if err := yaml.Unmarshal(b, &topo); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}
	for i := range topo.Tanks {
		t := &topo.Tanks[i]
		if t.ID == "" {
			return nil, fmt.Errorf("topology tank %d missing id", i)
		}
		if t.HysteresisMgL <= 0 {
			t.HysteresisMgL = 0.2
		}
		if t.AirflowGainM3hPerMgL <= 0 {
			t.AirflowGainM3hPerMgL = 400
		}
	}
	return topo.Tanks, nil
}
