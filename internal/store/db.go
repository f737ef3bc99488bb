package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go-contact-pipeline/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database backing the load sink, the run history,
// and the append-only error log. It is injected into the components that
// need it rather than accessed through a global.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids SQLITE_BUSY
	// under concurrent per-record loads.
	db.SetMaxOpenConns(1)

	contactTable := `
	CREATE TABLE IF NOT EXISTS contacts (
		email TEXT PRIMARY KEY COLLATE NOCASE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_endpoint TEXT,
		state TEXT,
		extracted_count INTEGER,
		transformed_count INTEGER,
		loaded_count INTEGER,
		failed_count INTEGER,
		started_at DATETIME,
		finished_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		message TEXT,
		raw_record TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{contactTable, runTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertContact inserts a contact or, when the email already exists,
// updates the existing row in place. The key comparison is
// case-insensitive; the stored email keeps the first writer's casing.
// Last write wins on conflicting concurrent loads of the same email.
func (s *Store) UpsertContact(ctx context.Context, c model.Contact) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (email, first_name, last_name, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			updated_at = excluded.updated_at`,
		c.Email, c.FirstName, c.LastName, c.Phone, now, now)
	return err
}

// CountContacts returns the number of stored contacts.
func (s *Store) CountContacts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

// SaveRun persists one run outcome together with its error records.
// The error log is append-only; rows are never updated.
func (s *Store) SaveRun(ctx context.Context, sourceEndpoint string, outcome model.RunOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_endpoint, state, extracted_count, transformed_count,
			loaded_count, failed_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RequestID, sourceEndpoint, string(outcome.State),
		outcome.ExtractedCount, outcome.TransformedCount,
		outcome.LoadedCount, outcome.FailedCount,
		outcome.StartedAt, outcome.FinishedAt)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, e := range outcome.Errors {
		if err := s.AppendError(ctx, outcome.RequestID, e); err != nil {
			return err
		}
	}
	return nil
}

// AppendError writes one error record to the error log.
func (s *Store) AppendError(ctx context.Context, runID string, e model.ErrorRecord) error {
	var rawJSON []byte
	if e.Raw != nil {
		rawJSON, _ = json.Marshal(e.Raw)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_errors (run_id, stage, message, raw_record, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, string(e.Stage), e.Message, string(rawJSON), e.Timestamp)
	if err != nil {
		return fmt.Errorf("appending error record: %w", err)
	}
	return nil
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID             string    `json:"id"`
	SourceEndpoint string    `json:"sourceEndpoint"`
	State          string    `json:"state"`
	ExtractedCount int       `json:"extractedCount"`
	LoadedCount    int       `json:"loadedCount"`
	FailedCount    int       `json:"failedCount"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// ListRuns returns all persisted runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_endpoint, state, extracted_count, loaded_count, failed_count,
			started_at, finished_at
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.SourceEndpoint, &r.State, &r.ExtractedCount,
			&r.LoadedCount, &r.FailedCount, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run summary by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (RunSummary, error) {
	var r RunSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_endpoint, state, extracted_count, loaded_count, failed_count,
			started_at, finished_at
		FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.SourceEndpoint, &r.State, &r.ExtractedCount,
			&r.LoadedCount, &r.FailedCount, &r.StartedAt, &r.FinishedAt)
	return r, err
}

// GetRunErrors returns the error log entries for one run, oldest first.
func (s *Store) GetRunErrors(ctx context.Context, runID string) ([]model.ErrorRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, message, raw_record, created_at
		FROM run_errors WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []model.ErrorRecord
	for rows.Next() {
		var e model.ErrorRecord
		var stage, rawJSON string
		if err := rows.Scan(&stage, &e.Message, &rawJSON, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Stage = model.Stage(stage)
		if rawJSON != "" {
			_ = json.Unmarshal([]byte(rawJSON), &e.Raw)
		}
		errs = append(errs, e)
	}
	return errs, rows.Err()
}
