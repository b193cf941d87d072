// Package store persists the audit trail in SQLite so past runs can be
// queried and served over HTTP.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ja7ad/ecosched/pkg/recorder"

	_ "modernc.org/sqlite"
)

// Record is one stored decision.
type Record struct {
	ID        int64   `json:"id"`
	RunID     string  `json:"run_id"`
	Seq       int     `json:"seq"`
	Timestamp string  `json:"timestamp"`
	Task      string  `json:"task"`
	Action    string  `json:"action"`
	Label     string  `json:"label"`
	Energy    float64 `json:"energy"`
	Battery   float64 `json:"battery"`
	OnAC      bool    `json:"on_ac"`
	ElapsedMS int64   `json:"elapsed_ms"`
	MeasuredJ float64 `json:"measured_j"`
	Error     string  `json:"error,omitempty"`
}

// RecordOf flattens a recorder entry.
func RecordOf(e recorder.Entry) Record {
	row := recorder.RowOf(e)
	r := recordOfRow(row)
	r.RunID = e.RunID
	r.Seq = e.Decision.Seq
	r.ElapsedMS = e.Elapsed.Milliseconds()
	r.MeasuredJ = e.MeasuredJ
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	return r
}

func recordOfRow(row recorder.Row) Record {
	return Record{
		Timestamp: row.Timestamp,
		Task:      row.Task,
		Action:    row.Action.String(),
		Label:     row.Label.String(),
		Energy:    row.Energy,
		Battery:   row.Battery,
		OnAC:      row.OnAC,
	}
}

// Store is a SQLite-backed audit store. It also satisfies recorder.Recorder.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ recorder.Recorder = (*Store)(nil)

// Open opens (or creates) the database at path and migrates it.
// Use ":memory:" in tests.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: pragma wal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, path: path, logger: logger.With("component", "store")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert stores r and returns its row id.
func (s *Store) Insert(ctx context.Context, r Record) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "decisions", "task", r.Task)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (run_id, seq, timestamp, task, action, label, energy, battery, on_ac, elapsed_ms, measured_j, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Seq, r.Timestamp, r.Task, r.Action, r.Label, r.Energy, r.Battery,
		boolToInt(r.OnAC), r.ElapsedMS, r.MeasuredJ, r.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	return res.LastInsertId()
}

// Record implements recorder.Recorder. Failures are sink errors.
func (s *Store) Record(ctx context.Context, e recorder.Entry) error {
	if _, err := s.Insert(ctx, RecordOf(e)); err != nil {
		return &recorder.SinkError{Sink: s.path, Op: "write", Err: err}
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	Limit int    // <= 0 means no limit
	RunID string // empty means every run
}

// List returns stored decisions, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	s.logger.Debug("sql", "op", "select", "table", "decisions", "limit", opts.Limit, "run_id", opts.RunID)

	q := `SELECT id, run_id, seq, timestamp, task, action, label, energy, battery, on_ac, elapsed_ms, measured_j, error
	      FROM decisions`
	var args []any
	if opts.RunID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, opts.RunID)
	}
	q += ` ORDER BY id DESC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var onAC int
		if err := rows.Scan(&r.ID, &r.RunID, &r.Seq, &r.Timestamp, &r.Task, &r.Action, &r.Label,
			&r.Energy, &r.Battery, &onAC, &r.ElapsedMS, &r.MeasuredJ, &r.Error); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.OnAC = onAC != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored decisions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&n)
	return n, err
}

// ImportCSV loads a structured log. Header rows and rows with fewer than
// seven fields are skipped; any other malformed row, including one with
// more than seven fields, aborts the import and nothing is committed. It returns the number of rows inserted.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader, runID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (run_id, timestamp, task, action, label, energy, battery, on_ac)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var n, skipped int
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("store: import: %w", err)
		}
		if recorder.IsHeader(fields) || len(fields) < len(recorder.Columns) {
			skipped++
			continue
		}
		row, err := recorder.ParseRow(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return 0, fmt.Errorf("store: import line %d: %w", line, err)
		}
		rec := recordOfRow(row)
		if _, err := stmt.ExecContext(ctx, runID, rec.Timestamp, rec.Task, rec.Action, rec.Label,
			rec.Energy, rec.Battery, boolToInt(rec.OnAC)); err != nil {
			return 0, fmt.Errorf("store: import insert: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	s.logger.Info("imported", "rows", n, "skipped", skipped)
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
