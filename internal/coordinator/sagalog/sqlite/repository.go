// Package sqlite stores the saga log in the storefront's SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jcmexdev/lvs-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    -- one checkout attempt; many rows per saga
    saga_id         TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    current_step    TEXT        NOT NULL DEFAULT '',
    -- checkout form, only on STARTED rows
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_saga_id ON saga_logs(saga_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

var _ sagalog.Repository = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// New applies the saga_logs schema to db.
func New(ctx context.Context, db *sql.DB) (*Repository, error) {
	if err := sqlitedb.Migrate(ctx, db, schema); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Save inserts a new saga log entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *sagalog.Entry) error {
	errs := []string{}
	if entry.Errors != nil {
		errs = entry.Errors
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("sqlite: encode saga errors for %q: %w", entry.SagaID, err)
	}

	const q = `
		INSERT INTO saga_logs
			(saga_id, status, current_step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		entry.SagaID,
		string(entry.Status),
		entry.Step,
		sqlitedb.NullableString(entry.Payload),
		string(errJSON),
		entry.TraceID,
		entry.SpanID,
		sqlitedb.FormatTime(entry.At),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save saga log for %q: %w", entry.SagaID, err)
	}
	return nil
}

// GetLatest returns the most recent entry for sagaID.
func (r *Repository) GetLatest(ctx context.Context, sagaID string) (*sagalog.Entry, error) {
	entries, err := r.query(ctx, `
		SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id DESC
		LIMIT  1`, sagaID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("sqlite: saga %q: %w", sagaID, sql.ErrNoRows)
	}
	return entries[0], nil
}

// History returns every entry for sagaID in the order it was written.
func (r *Repository) History(ctx context.Context, sagaID string) ([]*sagalog.Entry, error) {
	return r.query(ctx, `
		SELECT saga_id, status, current_step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   saga_logs
		WHERE  saga_id = ?
		ORDER  BY id ASC`, sagaID)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]*sagalog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query saga logs: %w", err)
	}
	defer rows.Close()

	var out []*sagalog.Entry
	for rows.Next() {
		var entry sagalog.Entry
		var errJSON, updatedAt string
		if err := rows.Scan(
			&entry.SagaID,
			&entry.Status,
			&entry.Step,
			&entry.Payload,
			&errJSON,
			&entry.TraceID,
			&entry.SpanID,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan saga log: %w", err)
		}
		if err := json.Unmarshal([]byte(errJSON), &entry.Errors); err != nil {
			return nil, fmt.Errorf("sqlite: decode saga errors for %q: %w", entry.SagaID, err)
		}
		if entry.At, err = sqlitedb.ParseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, &entry)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: iterate saga logs: %w", err)
	}
	return out, nil
}
