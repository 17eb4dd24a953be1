package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cranesort/internal/search"
	"cranesort/internal/yard"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	seed INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	best_attempt INTEGER NOT NULL DEFAULT -1,
	best_turns INTEGER NOT NULL DEFAULT 0,
	best_total INTEGER NOT NULL DEFAULT 0,
	fallback INTEGER NOT NULL DEFAULT 0,
	actions TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	seed INTEGER NOT NULL,
	plan TEXT NOT NULL,
	solved INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	total_actions INTEGER NOT NULL,
	failure TEXT NOT NULL DEFAULT '',
	elapsed_ns INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(run_id, idx),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id, idx);
`

var ErrNotFound = errors.New("not found")

type Run struct {
	ID          string
	Input       yard.Input
	Seed        int64
	StartedAt   time.Time
	FinishedAt  *time.Time
	Attempts    int
	BestAttempt int
	BestTurns   int
	BestTotal   int
	Fallback    bool
	Actions     []string
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps the pragmas and serialises search workers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// CreateRun inserts a run and returns its id, generated when empty.
func (s *Store) CreateRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	input, err := json.Marshal(run.Input)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs(id, input, seed, started_at) VALUES(?, ?, ?, ?)`,
		run.ID, string(input), run.Seed, run.StartedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return run.ID, nil
}

// FinishRun stores the kept schedule of a finished search.
func (s *Store) FinishRun(ctx context.Context, runID string, out search.Outcome) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, attempts = ?, best_attempt = ?, best_turns = ?,
			best_total = ?, fallback = ?, actions = ?
		WHERE id = ?`,
		time.Now().UTC().UnixNano(), out.Attempts, out.BestAttempt, out.Best.Turns,
		out.Best.TotalActions, boolInt(out.Fallback), strings.Join(out.Best.Actions, "\n"), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, input, seed, started_at, finished_at, attempts, best_attempt,
			best_turns, best_total, fallback, actions
		FROM runs WHERE id = ?`,
		runID,
	)
	var r Run
	var input, actions string
	var started int64
	var finished sql.NullInt64
	var fallback int
	if err := row.Scan(
		&r.ID, &input, &r.Seed, &started, &finished, &r.Attempts, &r.BestAttempt,
		&r.BestTurns, &r.BestTotal, &fallback, &actions,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
		}
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	if err := json.Unmarshal([]byte(input), &r.Input); err != nil {
		return Run{}, fmt.Errorf("decode input: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		r.FinishedAt = &t
	}
	r.Fallback = fallback != 0
	if actions != "" {
		r.Actions = strings.Split(actions, "\n")
	}
	return r, nil
}

func (s *Store) RecordAttempt(ctx context.Context, runID string, a search.Attempt) error {
	plan, err := json.Marshal(a.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO attempts(run_id, idx, seed, plan, solved, turns, total_actions, failure, elapsed_ns, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.Index, a.Seed, string(plan), boolInt(a.Solved), a.Turns, a.TotalActions,
		a.Failure, a.Elapsed.Nanoseconds(), time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record attempt %d: %w", a.Index, err)
	}
	return nil
}

func (s *Store) ListAttempts(ctx context.Context, runID string) ([]search.Attempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT idx, seed, plan, solved, turns, total_actions, failure, elapsed_ns
		FROM attempts WHERE run_id = ? ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	result := make([]search.Attempt, 0)
	for rows.Next() {
		var a search.Attempt
		var plan string
		var solved int
		var elapsed int64
		if err := rows.Scan(&a.Index, &a.Seed, &plan, &solved, &a.Turns, &a.TotalActions, &a.Failure, &elapsed); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(plan), &a.Plan); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		a.Solved = solved != 0
		a.Elapsed = time.Duration(elapsed)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return result, nil
}

// Recorder binds the store to one run for the search.
func (s *Store) Recorder(runID string) search.Recorder {
	return runRecorder{s: s, runID: runID}
}

type runRecorder struct {
	s     *Store
	runID string
}

func (r runRecorder) RecordAttempt(ctx context.Context, a search.Attempt) error {
	return r.s.RecordAttempt(ctx, r.runID, a)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
