// Package report keeps a sqlite ledger of run outcomes so failures can be
// queried across runs.
package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/1siamBot/spritebake/engine/batch"
)

// Ledger appends item outcomes and run totals to a sqlite file.
type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty ledger path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS items (
			run_id      TEXT NOT NULL,
			phase       TEXT NOT NULL,
			kind        TEXT NOT NULL,
			name        TEXT NOT NULL,
			status      TEXT NOT NULL,
			reason      TEXT NOT NULL,
			error       TEXT NOT NULL,
			duration_us INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS items_run ON items(run_id, status);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			output      TEXT NOT NULL,
			fatal       TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("ledger schema: %w", err)
		}
	}
	return nil
}

// Record stores one item outcome.
func (l *Ledger) Record(runID string, it batch.Item) error {
	errText := ""
	if it.Err != nil {
		errText = it.Err.Error()
	}
	_, err := l.db.Exec(
		`INSERT INTO items(run_id, phase, kind, name, status, reason, error, duration_us) VALUES(?,?,?,?,?,?,?,?)`,
		runID, it.Phase.String(), it.Kind, it.Name, it.Status.String(), it.Reason, errText, it.Duration.Microseconds(),
	)
	return err
}

// Finish stores the run totals. Finishing the same run again overwrites it.
func (l *Ledger) Finish(s *batch.Summary) error {
	fatal := ""
	if s.Fatal != nil {
		fatal = s.Fatal.Error()
	}
	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO runs(run_id, started_at, duration_ms, failed, output, fatal) VALUES(?,?,?,?,?,?)`,
		s.RunID, s.Started.UTC().Format(time.RFC3339Nano), s.Duration.Milliseconds(), s.Failed(), s.Output, fatal,
	)
	return err
}

// Count returns how many items of a run ended with status.
func (l *Ledger) Count(runID string, status batch.Status) (int, error) {
	var n int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM items WHERE run_id = ? AND status = ?`, runID, status.String(),
	).Scan(&n)
	return n, err
}

// Failures lists "kind name: reason" for every failed item of a run.
func (l *Ledger) Failures(runID string) ([]string, error) {
	rows, err := l.db.Query(
		`SELECT kind, name, reason FROM items WHERE run_id = ? AND status = ? ORDER BY rowid`,
		runID, batch.Failed.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var kind, name, reason string
		if err := rows.Scan(&kind, &name, &reason); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s %s: %s", kind, name, reason))
	}
	return out, rows.Err()
}

// Attach records every item and the final summary published on bus. Write
// errors are passed to onErr.
func (l *Ledger) Attach(bus *batch.EventBus, onErr func(error)) {
	bus.On(batch.EvtItemFinished, func(e batch.Event) {
		if it, ok := e.Payload.(batch.Item); ok {
			if err := l.Record(e.RunID, it); err != nil && onErr != nil {
				onErr(err)
			}
		}
	})
	bus.On(batch.EvtRunFinished, func(e batch.Event) {
		if s, ok := e.Payload.(*batch.Summary); ok {
			if err := l.Finish(s); err != nil && onErr != nil {
				onErr(err)
			}
		}
	})
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
