package adapter

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	m "github.com/mouse-blink/gorewrite/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MemoryStore is the path that opens an in-memory report store.
const MemoryStore = m.Path(":memory:")

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoRuns is returned when the store holds no run yet.
var ErrNoRuns = errors.New("no runs recorded")

// ReportStore persists and retrieves the reports of rewrite runs.
type ReportStore interface {
	SaveRun(ctx context.Context, run m.Run) error
	LatestRun(ctx context.Context) (m.Run, error)
	// ListRuns returns the most recent runs first, without their reports.
	ListRuns(ctx context.Context, limit int) ([]m.Run, error)
	Close() error
}

// SQLiteReportStore is a ReportStore backed by a sqlite database.
type SQLiteReportStore struct {
	db *sql.DB
}

// OpenReportStore opens (creating when needed) the sqlite database at path
// and applies pending migrations.
func OpenReportStore(path m.Path) (*SQLiteReportStore, error) {
	dsn := string(path)
	if path != MemoryStore {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}

		dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	} else {
		dsn += "?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteReportStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteReportStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

// SaveRun stores run and its reports in one transaction.
func (s *SQLiteReportStore) SaveRun(ctx context.Context, run m.Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Mode, run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, report := range run.Reports {
		row, err := encodeReport(report)
		if err != nil {
			return fmt.Errorf("encoding report for %s: %w", report.Unit, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reports (run_id, seq, unit, round, changed, recipes, failures, skipped, diff)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, string(report.Unit), report.Round, report.Changed,
			row.recipes, row.failures, row.skipped, report.Diff,
		)
		if err != nil {
			return fmt.Errorf("failed to save report for %s: %w", report.Unit, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// LatestRun returns the most recent run with its reports, or ErrNoRuns.
func (s *SQLiteReportStore) LatestRun(ctx context.Context) (m.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return m.Run{}, err
	}

	if len(runs) == 0 {
		return m.Run{}, ErrNoRuns
	}

	run := runs[0]

	run.Reports, err = s.reports(ctx, run.ID)
	if err != nil {
		return m.Run{}, err
	}

	return run, nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *SQLiteReportStore) ListRuns(ctx context.Context, limit int) ([]m.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, started_at FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var runs []m.Run

	for rows.Next() {
		var (
			run     m.Run
			started string
		)

		if err := rows.Scan(&run.ID, &run.Mode, &started); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, err = time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *SQLiteReportStore) reports(ctx context.Context, runID string) ([]m.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit, round, changed, recipes, failures, skipped, diff
		 FROM reports WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var reports []m.Report

	for rows.Next() {
		var (
			report m.Report
			unit   string
			row    reportRow
		)

		err := rows.Scan(&unit, &report.Round, &report.Changed, &row.recipes, &row.failures, &row.skipped, &report.Diff)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report.Unit = m.UnitID(unit)

		if err := row.decode(&report); err != nil {
			return nil, fmt.Errorf("decoding report for %s: %w", unit, err)
		}

		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// reportRow holds the JSON encoded list columns of a report.
type reportRow struct {
	recipes  string
	failures string
	skipped  string
}

func encodeReport(report m.Report) (reportRow, error) {
	var (
		row reportRow
		err error
	)

	if row.recipes, err = encodeList(report.Recipes); err != nil {
		return row, err
	}

	if row.failures, err = encodeList(report.Failures); err != nil {
		return row, err
	}

	if row.skipped, err = encodeList(report.Skipped); err != nil {
		return row, err
	}

	return row, nil
}

func encodeList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (r reportRow) decode(report *m.Report) error {
	if err := decodeList(r.recipes, &report.Recipes); err != nil {
		return err
	}

	if err := decodeList(r.failures, &report.Failures); err != nil {
		return err
	}

	return decodeList(r.skipped, &report.Skipped)
}

func decodeList[T any](data string, list *[]T) error {
	if data == "" || data == "[]" {
		return nil
	}

	return json.Unmarshal([]byte(data), list)
}
