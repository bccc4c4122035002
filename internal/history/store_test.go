// v0
// internal/history/store_test.go
package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"plantops/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "plantops.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		ev := models.LedgerEvent{
			EpochIndex: i, TankID: "tank-A", DOMgL: 1.5, TargetMgL: 2.0, DeficitMgL: 0.5,
			RequiredAirflowM3h: 550, BlowersOn: 1, TotalPowerKW: 14.2,
			Dosing: "NONE", Reason: "DO low", Timestamp: 1000 + i,
		}
		if err := s.Append(ctx, ev); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := s.Recent(ctx, "tank-A", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events=%d want 3", len(events))
	}
	if events[0].EpochIndex != 4 {
		t.Fatalf("newest first expected, got epoch %d", events[0].EpochIndex)
	}
}

func TestRecentFiltersByTank(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Append(ctx, models.LedgerEvent{TankID: "tank-A", Timestamp: 1})
	_ = s.Append(ctx, models.LedgerEvent{TankID: "tank-B", Timestamp: 2})

	events, err := s.Recent(ctx, "tank-B", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 1 || events[0].TankID != "tank-B" {
		t.Fatalf("filter failed: %+v", events)
	}

	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all=%d want 2", len(all))
	}
}

func TestRecentClampsLimit(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Recent(context.Background(), "", -1); err != nil {
		t.Fatalf("negative limit should clamp, got %v", err)
	}
}
