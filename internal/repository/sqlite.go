package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/entity"
)

// Timestamps are stored as unix nanoseconds so range filters compare integers.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS verification_runs (
	id             TEXT PRIMARY KEY,
	request_id     TEXT    NOT NULL,
	document_type  TEXT    NOT NULL,
	source         TEXT    NOT NULL DEFAULT '',
	content_type   TEXT    NOT NULL DEFAULT '',
	pages          INTEGER NOT NULL DEFAULT 0,
	outcome        TEXT    NOT NULL,
	status_code    INTEGER NOT NULL,
	fields_total   INTEGER NOT NULL DEFAULT 0,
	fields_invalid INTEGER NOT NULL DEFAULT 0,
	invalid_keys   TEXT    NOT NULL DEFAULT '[]',
	error_message  TEXT    NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_runs_started_at_idx ON verification_runs (started_at);
`

// SQLiteRuns stores runs in a local sqlite database.
type SQLiteRuns struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens path (a file name, a file: URI or ":memory:").
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteRuns, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", "sqlite", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" a single database and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate verification_runs: %w", err)
	}
	return &SQLiteRuns{db: db, log: logger}, nil
}

func (r *SQLiteRuns) Record(ctx context.Context, run entity.VerificationRun) error {
	keys, err := encodeKeys(run.InvalidKeys)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO verification_runs (
			id, request_id, document_type, source, content_type, pages, outcome, status_code,
			fields_total, fields_invalid, invalid_keys, error_message, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.RequestID, run.DocumentType, run.Source, run.ContentType, run.Pages, string(run.Outcome), run.StatusCode,
		run.FieldsTotal, run.FieldsInvalid, keys, run.ErrorMessage, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
	)
	if err != nil {
		r.log.Error("verification_run insert failed", "run_id", run.ID, "err", err)
		return err
	}
	return nil
}

func (r *SQLiteRuns) List(ctx context.Context, filter RunFilter) ([]entity.VerificationRun, error) {
	where, args := filter.whereClause(func(int) string { return "?" })
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			args[i] = t.UnixNano()
		}
	}
	args = append(args, filter.limit())
	q := `SELECT id, request_id, document_type, source, content_type, pages, outcome, status_code,
		fields_total, fields_invalid, invalid_keys, error_message, started_at, finished_at
		FROM verification_runs` + where + ` ORDER BY started_at DESC, id LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.log.Error("verification_run list failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.VerificationRun
	for rows.Next() {
		var (
			run               entity.VerificationRun
			id, outcome       string
			keys              []byte
			started, finished int64
		)
		if err := rows.Scan(&id, &run.RequestID, &run.DocumentType, &run.Source, &run.ContentType, &run.Pages,
			&outcome, &run.StatusCode, &run.FieldsTotal, &run.FieldsInvalid, &keys, &run.ErrorMessage,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan verification_runs: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scan verification_runs: bad id %q: %w", id, err)
		}
		if run.InvalidKeys, err = decodeKeys(keys); err != nil {
			return nil, err
		}
		run.Outcome = constants.RunOutcome(outcome)
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *SQLiteRuns) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRuns) Close() error {
	return r.db.Close()
}
