// Package ledger keeps a history of plan runs in the project's SQLite database.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jumppad-labs/spektacular/internal/plan"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
	id TEXT PRIMARY KEY,
	spec TEXT NOT NULL,
	session_id TEXT,
	state TEXT NOT NULL,
	turns INTEGER NOT NULL DEFAULT 0,
	plan_dir TEXT,
	error TEXT,
	started_at INTEGER NOT NULL,
	ended_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_plan_runs_started_at ON plan_runs(started_at);
`

// Run states recorded in the ledger
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Run is one row of the plan_runs table
type Run struct {
	ID        string
	Spec      string
	SessionID string
	State     string
	Turns     int
	PlanDir   string
	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Store records plan runs. It implements plan.Journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ plan.Journal = (*Store)(nil)

// Open creates or opens the ledger database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RunStarted inserts a new run in the running state
func (s *Store) RunStarted(runID, spec string) error {
	_, err := s.db.Exec(`
		INSERT INTO plan_runs (id, spec, state, turns, started_at)
		VALUES (?, ?, ?, 0, ?)
	`, runID, spec, StateRunning, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SessionCaptured stores the agent session id of a run
func (s *Store) SessionCaptured(runID, sessionID string) error {
	_, err := s.db.Exec(`UPDATE plan_runs SET session_id = ? WHERE id = ?`, sessionID, runID)
	return err
}

// TurnStarted records the number of agent turns taken so far
func (s *Store) TurnStarted(runID string, turn int) error {
	_, err := s.db.Exec(`UPDATE plan_runs SET turns = ? WHERE id = ?`, turn, runID)
	return err
}

// RunFinished records the terminal state of a run
func (s *Store) RunFinished(runID string, outcome plan.Outcome) error {
	_, err := s.db.Exec(`
		UPDATE plan_runs SET state = ?, plan_dir = ?, error = ?, ended_at = ?
		WHERE id = ?
	`, outcome.State, nullString(outcome.PlanDir), nullString(outcome.Error), s.now().UnixMilli(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Get fetches a run by id, returning nil when it does not exist
func (s *Store) Get(id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`
		SELECT id, spec, session_id, state, turns, plan_dir, error, started_at, ended_at
		FROM plan_runs WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, spec, session_id, state, turns, plan_dir, error, started_at, ended_at
		FROM plan_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var sessionID, planDir, errText sql.NullString
	var startedAt int64
	var endedAt sql.NullInt64

	if err := row.Scan(&run.ID, &run.Spec, &sessionID, &run.State, &run.Turns, &planDir, &errText, &startedAt, &endedAt); err != nil {
		return nil, err
	}

	run.SessionID = sessionID.String
	run.PlanDir = planDir.String
	run.Error = errText.String
	run.StartedAt = time.UnixMilli(startedAt)
	if endedAt.Valid {
		t := time.UnixMilli(endedAt.Int64)
		run.EndedAt = &t
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
