// v2
// cmd/tank-simulator/kafka.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"

	"plantops/internal/models"
)

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
}

func publish(ctx context.Context, log *slog.Logger, w *kafka.Writer, msg models.Reading) error {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal failed", "err", err)
		return err
	}
	err = w.WriteMessages(ctx, kafka.Message{Key: []byte(msg.DeviceID), Value: b, Time: msg.Timestamp})
	if err != nil {
		log.Error("kafka write failed", "err", err, "deviceId", msg.DeviceID)
		return err
	}
	log.Debug("published", "deviceId", msg.DeviceID, "type", msg.DeviceType, "ts", msg.Timestamp)
	return nil
}

// startCommandConsumer reads the tank's command topic from the partition the
// tank id hashes onto and applies blower and dosing commands. The control
// service keys every command by tank id through the same Java-compatible
// murmur2, so this single partition carries the tank's full command stream;
// the tank filter in applyCommand guards against misdirected messages.
func (s *Simulator) startCommandConsumer(ctx context.Context) {
	topic := s.cfg.TopicCommandPrefix + "." + s.cfg.TankID
	s.log.Info("starting command consumer", "topic", topic)

	var conn *kafka.Conn
	var err error
	for _, b := range s.cfg.KafkaBrokers {
		conn, err = kafka.Dial("tcp", b)
		if err == nil {
			break
		}
		s.log.Warn("broker dial failed", "broker", b, "err", err)
	}
	if conn == nil {
		s.log.Error("no broker reachable")
		return
	}
	defer func(conn *kafka.Conn) {
		if err := conn.Close(); err != nil {
			s.log.Error("failed to close kafka connection", "err", err)
		}
	}(conn)

	parts, err := conn.ReadPartitions(topic)
	if err != nil || len(parts) == 0 {
		s.log.Error("read partitions failed", "topic", topic, "err", err)
		return
	}
	ids := uniquePartitionIDs(parts)
	if len(ids) == 0 {
		s.log.Error("no partitions")
		return
	}
	sort.Ints(ids)

	h := murmur2JavaCompat([]byte(s.cfg.TankID))
	partition := ids[int(h%uint32(len(ids)))]
	s.log.Info("consumer assigned", "tankId", s.cfg.TankID, "partition", partition, "topic", topic)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   s.cfg.KafkaBrokers,
		Topic:     topic,
		Partition: partition,
		MinBytes:  1, MaxBytes: 10e6,
	})
	go func() {
		defer func(r *kafka.Reader) {
			if err := r.Close(); err != nil {
				s.log.Error("failed to close kafka reader", "err", err)
			}
		}(r)
		for {
			m, err := r.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				s.log.Warn("read error", "err", err)
				time.Sleep(500 * time.Millisecond)
				continue
			}
			s.applyCommand(m.Value)
		}
	}()
}

// applyCommand decodes one command payload and applies it to the model.
// Blower commands carry blowerId; dosing commands carry chemical.
func (s *Simulator) applyCommand(payload []byte) {
	var probe struct {
		TankID   string `json:"tankId"`
		BlowerID string `json:"blowerId"`
		Chemical string `json:"chemical"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		s.log.Warn("invalid command json", "err", err)
		return
	}
	if probe.TankID != s.cfg.TankID {
		return
	}
	switch {
	case probe.BlowerID != "":
		var cmd models.BlowerCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			s.log.Warn("invalid blower command", "err", err)
			return
		}
		s.setBlower(cmd.BlowerID, cmd.Enabled, cmd.SpeedPercent)
	case probe.Chemical != "":
		var cmd models.DoseCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			s.log.Warn("invalid dose command", "err", err)
			return
		}
		s.setDose(cmd.Chemical, cmd.RateLPH)
	}
}
