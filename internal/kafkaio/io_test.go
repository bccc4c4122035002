// v0
// internal/kafkaio/io_test.go
package kafkaio

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"plantops/internal/models"
)

func TestFoldReadingMergesInstruments(t *testing.T) {
	var sample models.ProcessSample
	now := time.Now()

	foldReading(&sample, models.Reading{
		DeviceType: models.InstrumentDO, TankID: "tank-A", Timestamp: now,
		Reading: map[string]any{"doMgL": 1.4},
	})
	foldReading(&sample, models.Reading{
		DeviceType: models.InstrumentPH, TankID: "tank-A", Timestamp: now.Add(time.Second),
		Reading: map[string]any{"ph": 6.4},
	})
	foldReading(&sample, models.Reading{
		DeviceType: models.InstrumentFlow, TankID: "tank-A", Timestamp: now,
		Reading: map[string]any{"flowM3h": 320.0, "bodMgL": 210.0},
	})

	if !sample.HasDO || sample.DOMgL != 1.4 {
		t.Fatalf("DO not folded: %+v", sample)
	}
	if !sample.HasPH || sample.PH != 6.4 {
		t.Fatalf("pH not folded: %+v", sample)
	}
	if sample.InflowM3h != 320 || sample.BODMgL != 210 {
		t.Fatalf("flow/BOD not folded: %+v", sample)
	}
	if sample.ObservedAt != now.Add(time.Second).UnixMilli() {
		t.Fatalf("observedAt should track the newest reading: %+v", sample)
	}
}

func TestCommandMessagesAllLandOnTankPartition(t *testing.T) {
	blowers := []models.BlowerCommand{
		{TankID: "tank-A", BlowerID: "BL01", Enabled: true, SpeedPercent: 80},
		{TankID: "tank-A", BlowerID: "BL02"},
		{TankID: "tank-A", BlowerID: "BL03"},
	}
	dose := &models.DoseCommand{TankID: "tank-A", Chemical: "ACID", RateLPH: 20}

	msgs, err := commandMessages("tank-A", blowers, dose)
	if err != nil {
		t.Fatalf("commandMessages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("messages=%d want 4", len(msgs))
	}

	// The simulator reads the one partition its tank id hashes onto, so the
	// whole batch must route there too.
	balancer := kafka.Murmur2Balancer{}
	want := balancer.Balance(kafka.Message{Key: []byte("tank-A")}, 0, 1, 2)
	for i, m := range msgs {
		if string(m.Key) != "tank-A" {
			t.Fatalf("message %d keyed %q, want the tank id", i, m.Key)
		}
		if got := balancer.Balance(m, 0, 1, 2); got != want {
			t.Fatalf("message %d routed to partition %d, consumer reads %d", i, got, want)
		}
	}
}

func TestFoldReadingIntakeMetrics(t *testing.T) {
	var sample models.ProcessSample
	foldReading(&sample, models.Reading{
		DeviceType: models.InstrumentFlow,
		Reading:    map[string]any{"flowM3h": 400.0, "permeateM3h": 160.0, "pressureBar": 12.5},
	})
	if !sample.HasIntake || sample.PermeateM3h != 160 || sample.PressureBar != 12.5 {
		t.Fatalf("intake metrics not folded: %+v", sample)
	}

	var plain models.ProcessSample
	foldReading(&plain, models.Reading{
		DeviceType: models.InstrumentFlow,
		Reading:    map[string]any{"flowM3h": 400.0},
	})
	if plain.HasIntake {
		t.Fatalf("flow-only reading must not flag intake: %+v", plain)
	}
}

func TestFoldReadingNewerValueWins(t *testing.T) {
	var sample models.ProcessSample
	foldReading(&sample, models.Reading{DeviceType: models.InstrumentDO, Reading: map[string]any{"doMgL": 1.0}})
	foldReading(&sample, models.Reading{DeviceType: models.InstrumentDO, Reading: map[string]any{"doMgL": 2.2}})
	if sample.DOMgL != 2.2 {
		t.Fatalf("latest DO should win, got %.2f", sample.DOMgL)
	}
}

func TestFoldReadingIgnoresGarbage(t *testing.T) {
	var sample models.ProcessSample
	foldReading(&sample, models.Reading{DeviceType: models.InstrumentDO, Reading: map[string]any{"doMgL": "not a number"}})
	if sample.HasDO {
		t.Fatalf("non-numeric payload must not set the sample: %+v", sample)
	}
	foldReading(&sample, models.Reading{DeviceType: "unknown_device", Reading: map[string]any{"x": 1.0}})
	if sample.HasDO || sample.HasPH {
		t.Fatalf("unknown device type must not set the sample: %+v", sample)
	}
}

func TestToFloat64Variants(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(1.5), 1.5, true},
		{float32(2), 2, true},
		{int(3), 3, true},
		{int64(4), 4, true},
		{"5", 0, false},
		{nil, 0, false},
	} {
		got, ok := toFloat64(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("toFloat64(%v)=%v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
