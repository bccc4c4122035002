// v1
// cmd/field-gateway/config.go

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

type GatewayConfig struct {
	ListenAddr string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string // subscription filter, one '+' for the tank id

	KafkaBrokers       []string
	TopicReadingPrefix string

	PublishTimeout time.Duration
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

func buildConfig(log *slog.Logger) (GatewayConfig, error) {
	propsPath := os.Getenv("GATEWAY_PROPERTIES")
	if propsPath == "" {
		return GatewayConfig{}, errors.New("GATEWAY_PROPERTIES env var not set")
	}
	props, err := loadProps(propsPath)
	if err != nil {
		return GatewayConfig{}, err
	}

	broker := props["mqtt_broker"]
	if broker == "" {
		return GatewayConfig{}, errors.New("properties must include mqtt_broker")
	}
	addr := props["listen_addr"]
	if addr == "" {
		addr = ":8090"
	}
	clientID := props["mqtt_client_id"]
	if clientID == "" {
		clientID = "field-gateway"
	}
	topic := props["mqtt_topic"]
	if topic == "" {
		topic = "plant/+/readings"
	}

	cfg := GatewayConfig{
		ListenAddr:     addr,
		MQTTBroker:     broker,
		MQTTPort:       geti(props, "mqtt_port", 1883, log),
		MQTTClientID:   clientID,
		MQTTTopic:      topic,
		PublishTimeout: getd(props, "publish_timeout", 5*time.Second, log),
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		brokersEnv = "kafka:9092"
	}
	readingsPrefix := os.Getenv("TOPIC_READINGS_PREFIX")
	if readingsPrefix == "" {
		readingsPrefix = "plant.readings"
	}
	cfg.KafkaBrokers = splitCSV(brokersEnv)
	cfg.TopicReadingPrefix = readingsPrefix

	return cfg, nil
}
