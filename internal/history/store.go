// v1
// internal/history/store.go

// Package history persists the control ledger in SQLite so operators can
// query past decisions without replaying the Kafka topic.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"plantops/internal/models"
)

type Store struct {
	db *sql.DB
	lg *slog.Logger
}

// Open creates (or reuses) the database at path. WAL and a busy timeout keep
// the single-writer/many-reader pattern of the control service from tripping
// over "database is locked".
func Open(path string, lg *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	params := []string{"_foreign_keys=on", "_busy_timeout=5000", "_journal_mode=WAL"}
	dsn := fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s := &Store{db: db, lg: lg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	lg.Info("history store ready", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS ledger_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	epoch_index INTEGER NOT NULL,
	tank_id TEXT NOT NULL,
	do_mgl REAL NOT NULL,
	target_mgl REAL NOT NULL,
	deficit_mgl REAL NOT NULL,
	required_airflow_m3h REAL NOT NULL,
	blowers_on INTEGER NOT NULL,
	total_power_kw REAL NOT NULL,
	dosing TEXT NOT NULL,
	reason TEXT NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_tank_ts ON ledger_events(tank_id, ts DESC);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Append stores one decision event.
func (s *Store) Append(ctx context.Context, ev models.LedgerEvent) error {
	const q = `INSERT INTO ledger_events
(epoch_index, tank_id, do_mgl, target_mgl, deficit_mgl, required_airflow_m3h, blowers_on, total_power_kw, dosing, reason, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		ev.EpochIndex, ev.TankID, ev.DOMgL, ev.TargetMgL, ev.DeficitMgL,
		ev.RequiredAirflowM3h, ev.BlowersOn, ev.TotalPowerKW, ev.Dosing, ev.Reason, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first, optionally filtered to a
// tank. limit is clamped to a sane window.
func (s *Store) Recent(ctx context.Context, tank string, limit int) ([]models.LedgerEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT epoch_index, tank_id, do_mgl, target_mgl, deficit_mgl, required_airflow_m3h, blowers_on, total_power_kw, dosing, reason, ts
FROM ledger_events`
	args := []any{}
	if tank != "" {
		q += ` WHERE tank_id = ?`
		args = append(args, tank)
	}
	q += ` ORDER BY ts DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEvent
	for rows.Next() {
		var ev models.LedgerEvent
		if err := rows.Scan(&ev.EpochIndex, &ev.TankID, &ev.DOMgL, &ev.TargetMgL, &ev.DeficitMgL,
			&ev.RequiredAirflowM3h, &ev.BlowersOn, &ev.TotalPowerKW, &ev.Dosing, &ev.Reason, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
