package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"narrate/internal/services"
)

// casMaxAttempts bounds the retry loop when two advance calls race on the
// same job; the loser re-reads and recomputes.
const casMaxAttempts = 5

// Store manages job persistence backed by SQLite. A file lock guards the
// database directory so only one process writes at a time.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the job database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "jobs.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("job store in %s is locked by another process", dir)
	}

	dbPath := filepath.Join(dir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, lock: lock, path: dbPath}, nil
}

// Close closes the database connection and releases the store lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Create inserts a new pending job for the supplied input reference.
func (s *Store) Create(ctx context.Context, inputRef string, opts Options) (*Job, error) {
	inputRef = strings.TrimSpace(inputRef)
	if inputRef == "" {
		return nil, services.Wrap(services.ErrValidation, "jobs", "create", "input reference required", nil)
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyHeuristic
	}

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, input_ref, status, step, progress, message, options_json,
            created_at, updated_at, revision
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		id,
		inputRef,
		StatusPending,
		StepUpload,
		0.0,
		"Job accepted",
		string(optionsJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job by identifier. Unknown ids fail with the not found marker.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get", fmt.Sprintf("job %s", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// UpdateWith applies mutate to the current snapshot of the job and writes
// the result back only if the record is unchanged since the read. On a
// revision conflict the mutation is recomputed against the fresh snapshot,
// so two concurrent advance calls cannot interleave into an inconsistent
// record.
func (s *Store) UpdateWith(ctx context.Context, id string, mutate func(Job) (Job, error)) (*Job, error) {
	for attempt := 0; attempt < casMaxAttempts; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		next, err := mutate(*current)
		if err != nil {
			return nil, err
		}
		if err := validateTransition(*current, next); err != nil {
			return nil, err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		next.Revision = current.Revision + 1

		replaced, err := s.replace(ctx, next, current.Revision)
		if err != nil {
			return nil, err
		}
		if replaced {
			return &next, nil
		}
	}
	return nil, fmt.Errorf("update job %s: too many concurrent revisions", id)
}

// validateTransition enforces the record invariants: failed is terminal,
// steps never move backwards, progress never decreases outside failure and
// strictly increases when the step advances, and result/error stay mutually
// exclusive.
func validateTransition(current, next Job) error {
	if current.Status == StatusFailed && next.Status != StatusFailed {
		return services.Wrap(services.ErrValidation, "jobs", "update", "failed job cannot re-enter processing", nil)
	}
	if current.Status == StatusCompleted && next.Status != StatusCompleted {
		return services.Wrap(services.ErrValidation, "jobs", "update", "completed job cannot change state", nil)
	}
	if next.Status != StatusFailed {
		if StepIndex(next.Step) < StepIndex(current.Step) {
			return services.Wrap(services.ErrValidation, "jobs", "update", "step cannot move backwards", nil)
		}
		if next.Progress < current.Progress {
			return services.Wrap(services.ErrValidation, "jobs", "update", "progress cannot decrease", nil)
		}
		if StepIndex(next.Step) > StepIndex(current.Step) && next.Progress <= current.Progress {
			return services.Wrap(services.ErrValidation, "jobs", "update", "progress must increase when step advances", nil)
		}
	}
	if next.Result != nil && next.Error != nil {
		return services.Wrap(services.ErrValidation, "jobs", "update", "result and error are mutually exclusive", nil)
	}
	if next.Result != nil && next.Status != StatusCompleted {
		return services.Wrap(services.ErrValidation, "jobs", "update", "result requires completed status", nil)
	}
	if next.Error != nil && next.Status != StatusFailed {
		return services.Wrap(services.ErrValidation, "jobs", "update", "error requires failed status", nil)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, job Job, expectedRevision int64) (bool, error) {
	unitsJSON, analysesJSON, resultJSON, optionsJSON, err := encodePayloads(job)
	if err != nil {
		return false, err
	}

	var errCode, errMessage, errDetail any
	if job.Error != nil {
		errCode = string(job.Error.Code)
		errMessage = job.Error.Message
		errDetail = nullableString(job.Error.Detail)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET input_ref = ?, status = ?, step = ?, progress = ?, message = ?,
             options_json = ?, units_json = ?, analyses_json = ?, result_json = ?,
             error_code = ?, error_message = ?, error_detail = ?,
             updated_at = ?, revision = ?
         WHERE id = ? AND revision = ?`,
		job.InputRef,
		job.Status,
		job.Step,
		job.Progress,
		nullableString(job.Message),
		optionsJSON,
		unitsJSON,
		analysesJSON,
		resultJSON,
		errCode,
		errMessage,
		errDetail,
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.Revision,
		job.ID,
		expectedRevision,
	)
	if err != nil {
		return false, fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearTerminal removes completed and failed jobs.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear terminal jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
