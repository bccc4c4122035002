// v1
// internal/kafkaio/io.go
package kafkaio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"plantops/internal/circuitbreaker"
	"plantops/internal/config"
	"plantops/internal/models"
)

// IO encapsulates the kafka readers/writers and topic layout of the control
// service: one readings reader per tank, one breaker-guarded command writer
// per tank, one breaker-guarded ledger writer for the whole plant.
type IO struct {
	cfg *config.AppConfig
	lg  *slog.Logger

	tankReaders    map[string]*kafka.Reader
	commandWriters map[string]*circuitbreaker.Writer
	ledgerWriter   *circuitbreaker.Writer
}

// ensureTopics makes sure the per-tank topics and the ledger topic exist.
// Kafka returns an error when a topic already exists; that is logged and
// ignored so restarts stay quiet.
func (ioh *IO) ensureTopics(ctx context.Context) error {
	if len(ioh.cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("no brokers provided")
	}
	conn, err := kafka.DialContext(ctx, "tcp", ioh.cfg.KafkaBrokers[0])
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", ioh.cfg.KafkaBrokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}
	c, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer c.Close()

	var configs []kafka.TopicConfig
	for _, tank := range ioh.cfg.TankIDs() {
		configs = append(configs,
			kafka.TopicConfig{Topic: ioh.cfg.ReadingsTopicPrefix + "." + tank, NumPartitions: 1, ReplicationFactor: 1},
			kafka.TopicConfig{Topic: ioh.cfg.CommandsTopicPrefix + "." + tank, NumPartitions: 3, ReplicationFactor: 1},
		)
	}
	configs = append(configs, kafka.TopicConfig{Topic: ioh.cfg.LedgerTopic, NumPartitions: 1, ReplicationFactor: 1})

	if err := c.CreateTopics(configs...); err != nil {
		ioh.lg.Warn("CreateTopics returned non-nil", "error", err)
	}
	ioh.lg.Info("topic ensure attempted", "tanks", ioh.cfg.TankIDs(), "ledger", ioh.cfg.LedgerTopic)
	return nil
}

// New wires the readers and writers for every configured tank.
func New(cfg *config.AppConfig, lg *slog.Logger) (*IO, error) {
	if len(cfg.Tanks) == 0 {
		return nil, errors.New("no tanks configured")
	}
	ioh := &IO{
		cfg:            cfg,
		lg:             lg,
		tankReaders:    map[string]*kafka.Reader{},
		commandWriters: map[string]*circuitbreaker.Writer{},
	}
	if err := ioh.ensureTopics(context.Background()); err != nil {
		lg.Warn("topic ensure failed", "error", err)
	}

	cbCfg := circuitbreaker.ConfigFromEnv()
	for _, tank := range cfg.TankIDs() {
		readTopic := cfg.ReadingsTopicPrefix + "." + tank
		ioh.tankReaders[tank] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:   cfg.KafkaBrokers,
			Topic:     readTopic,
			Partition: 0,
			MinBytes:  1,
			MaxBytes:  10e6,
			MaxWait:   200 * time.Millisecond,
		})

		cmdTopic := cfg.CommandsTopicPrefix + "." + tank
		w := &kafka.Writer{
			Addr:  kafka.TCP(cfg.KafkaBrokers...),
			Topic: cmdTopic,
			// Java-compatible murmur2 on the tank key, so the simulator's
			// partition choice (same hash, same key) sees every command.
			Balancer:     kafka.Murmur2Balancer{},
			RequiredAcks: kafka.RequireAll,
		}
		ioh.commandWriters[tank] = circuitbreaker.WrapWriter("commands."+tank, w, cbCfg, lg)
		lg.Info("kafka clients created", "tank", tank, "readingsTopic", readTopic, "commandsTopic", cmdTopic)
	}

	lw := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.LedgerTopic,
		RequiredAcks: kafka.RequireAll,
	}
	ioh.ledgerWriter = circuitbreaker.WrapWriter("ledger", lw, cbCfg, lg)
	return ioh, nil
}

func (ioh *IO) Close() {
	for tank, r := range ioh.tankReaders {
		_ = r.Close()
		ioh.lg.Info("reader closed", "tank", tank)
	}
}

// DrainTankLatest reads everything immediately available on a tank's readings
// topic and folds it into one ProcessSample, keeping only the newest value
// per instrument. Older messages are discarded as obsolete; the control loop
// only ever acts on the latest plant state.
func (ioh *IO) DrainTankLatest(ctx context.Context, tank string) (models.ProcessSample, bool, error) {
	r, ok := ioh.tankReaders[tank]
	if !ok {
		return models.ProcessSample{}, false, fmt.Errorf("no reader for tank %s", tank)
	}
	var sample models.ProcessSample
	var got bool

	deadline := time.Now().Add(350 * time.Millisecond)
	for {
		ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		msg, err := r.FetchMessage(ctx2)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			if !got {
				return models.ProcessSample{}, false, err
			}
			break
		}
		var rd models.Reading
		if err := json.Unmarshal(msg.Value, &rd); err != nil {
			ioh.lg.Error("bad message json", "tank", tank, "error", err)
			continue
		}
		foldReading(&sample, rd)
		got = true

		if time.Now().After(deadline) {
			break
		}
	}
	if !got {
		return models.ProcessSample{}, false, nil
	}
	if err := r.CommitMessages(ctx, kafka.Message{Topic: r.Config().Topic, Partition: r.Config().Partition, Offset: r.Stats().Offset}); err != nil {
		ioh.lg.Warn("commit warning", "tank", tank, "error", err)
	}
	return sample, true, nil
}

// foldReading merges one instrument envelope into the running sample.
func foldReading(sample *models.ProcessSample, rd models.Reading) {
	payload, ok := rd.Reading.(map[string]any)
	if !ok {
		b, _ := json.Marshal(rd.Reading)
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return
		}
		payload = m
	}
	switch rd.DeviceType {
	case models.InstrumentDO:
		if v, ok := toFloat64(payload["doMgL"]); ok {
			sample.DOMgL = v
			sample.HasDO = true
		}
	case models.InstrumentPH:
		if v, ok := toFloat64(payload["ph"]); ok {
			sample.PH = v
			sample.HasPH = true
		}
	case models.InstrumentFlow:
		if v, ok := toFloat64(payload["flowM3h"]); ok {
			sample.InflowM3h = v
		}
		if v, ok := toFloat64(payload["bodMgL"]); ok {
			sample.BODMgL = v
		}
		if v, ok := toFloat64(payload["permeateM3h"]); ok {
			sample.PermeateM3h = v
			sample.HasIntake = true
		}
		if v, ok := toFloat64(payload["pressureBar"]); ok {
			sample.PressureBar = v
			sample.HasIntake = true
		}
	}
	if ts := rd.Timestamp.UnixMilli(); ts > sample.ObservedAt {
		sample.ObservedAt = ts
	}
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// commandMessages builds the command batch for one tank. Every message is
// keyed by the tank id: the simulator consumes a single partition picked by
// hashing its tank id, so any other key would strand commands on partitions
// it never reads.
func commandMessages(tank string, blowers []models.BlowerCommand, dose *models.DoseCommand) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(blowers)+1)
	for _, cmd := range blowers {
		b, err := json.Marshal(cmd)
		if err != nil {
			return nil, fmt.Errorf("marshal blower command: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(tank), Value: b})
	}
	if dose != nil {
		b, err := json.Marshal(dose)
		if err != nil {
			return nil, fmt.Errorf("marshal dose command: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(tank), Value: b})
	}
	return msgs, nil
}

// PublishDecision writes the blower and dosing commands (keyed by tank, see
// commandMessages) and the ledger event.
func (ioh *IO) PublishDecision(ctx context.Context, tank string, blowers []models.BlowerCommand, dose *models.DoseCommand, led models.LedgerEvent) error {
	cw, ok := ioh.commandWriters[tank]
	if !ok {
		return fmt.Errorf("no command writer for tank %s", tank)
	}

	msgs, err := commandMessages(tank, blowers, dose)
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		if err := cw.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish commands: %w", err)
		}
	}

	lb, err := json.Marshal(led)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	if err := ioh.ledgerWriter.WriteMessages(ctx, kafka.Message{Key: []byte(tank), Value: lb}); err != nil {
		return fmt.Errorf("publish ledger: %w", err)
	}
	return nil
}

// BreakerStates reports every writer breaker's position for metrics.
func (ioh *IO) BreakerStates() map[string]circuitbreaker.State {
	out := make(map[string]circuitbreaker.State, len(ioh.commandWriters)+1)
	for tank, w := range ioh.commandWriters {
		out["commands."+tank] = w.State()
	}
	if ioh.ledgerWriter != nil {
		out["ledger"] = ioh.ledgerWriter.State()
	}
	return out
}
