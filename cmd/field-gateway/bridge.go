// v2
// cmd/field-gateway/bridge.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"plantops/internal/models"
)

var (
	errBadTopic   = errors.New("topic does not match plant/<tankId>/readings")
	errNoDeviceID = errors.New("payload has no deviceId")
)

// Bridge fans MQTT field telemetry out to the per-tank Kafka readings topics.
// One Kafka writer is kept per tank and created lazily on first sight.
type Bridge struct {
	log *slog.Logger
	cfg GatewayConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer

	forwarded uint64
	dropped   uint64
}

func NewBridge(log *slog.Logger, cfg GatewayConfig) *Bridge {
	return &Bridge{log: log, cfg: cfg, writers: map[string]*kafka.Writer{}}
}

// tankFromTopic extracts the tank id from a plant/<tankId>/readings topic.
func tankFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "plant" || parts[2] != "readings" || parts[1] == "" {
		return "", errBadTopic
	}
	return parts[1], nil
}

// translate turns one MQTT payload into the Kafka reading envelope. The tank
// id comes from the topic and always wins over whatever the payload carries;
// a missing timestamp is stamped with the arrival time.
func translate(topic string, payload []byte, now time.Time) (models.Reading, error) {
	tank, err := tankFromTopic(topic)
	if err != nil {
		return models.Reading{}, err
	}
	var r models.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return models.Reading{}, fmt.Errorf("invalid reading json: %w", err)
	}
	if r.DeviceID == "" {
		return models.Reading{}, errNoDeviceID
	}
	r.TankID = tank
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	return r, nil
}

func (b *Bridge) writerFor(tank string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.writers[tank]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(b.cfg.KafkaBrokers...),
		Topic:    b.cfg.TopicReadingPrefix + "." + tank,
		Balancer: &kafka.Hash{},
	}
	b.writers[tank] = w
	b.log.Info("kafka writer created", "tankId", tank, "topic", w.Topic)
	return w
}

// Forward bridges one MQTT message into Kafka.
func (b *Bridge) Forward(ctx context.Context, topic string, payload []byte) {
	r, err := translate(topic, payload, time.Now())
	if err != nil {
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.log.Warn("dropping message", "topic", topic, "err", err)
		return
	}

	buf, err := json.Marshal(r)
	if err != nil {
		b.log.Error("marshal failed", "err", err)
		return
	}

	wctx, cancel := context.WithTimeout(ctx, b.cfg.PublishTimeout)
	defer cancel()
	w := b.writerFor(r.TankID)
	if err := w.WriteMessages(wctx, kafka.Message{Key: []byte(r.DeviceID), Value: buf, Time: r.Timestamp}); err != nil {
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.log.Error("kafka write failed", "tankId", r.TankID, "deviceId", r.DeviceID, "err", err)
		return
	}

	b.mu.Lock()
	b.forwarded++
	b.mu.Unlock()
	b.log.Debug("forwarded", "tankId", r.TankID, "deviceId", r.DeviceID, "type", r.DeviceType)
}

// Stats reports forwarded and dropped message counts.
func (b *Bridge) Stats() (forwarded, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forwarded, b.dropped
}

// Close shuts down all per-tank writers.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for tank, w := range b.writers {
		if err := w.Close(); err != nil {
			b.log.Error("writer close failed", "tankId", tank, "err", err)
		}
	}
}
