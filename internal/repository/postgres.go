package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS verification_runs (
	id             UUID PRIMARY KEY,
	request_id     TEXT        NOT NULL,
	document_type  TEXT        NOT NULL,
	source         TEXT        NOT NULL DEFAULT '',
	content_type   TEXT        NOT NULL DEFAULT '',
	pages          INTEGER     NOT NULL DEFAULT 0,
	outcome        TEXT        NOT NULL,
	status_code    INTEGER     NOT NULL,
	fields_total   INTEGER     NOT NULL DEFAULT 0,
	fields_invalid INTEGER     NOT NULL DEFAULT 0,
	invalid_keys   JSONB       NOT NULL DEFAULT '[]',
	error_message  TEXT        NOT NULL DEFAULT '',
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS verification_runs_started_at_idx ON verification_runs (started_at);
CREATE INDEX IF NOT EXISTS verification_runs_document_type_idx ON verification_runs (document_type);
`

// PostgresRuns stores runs through a pgx pool.
type PostgresRuns struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func OpenPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresRuns, error) {
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate verification_runs: %w", err)
	}
	return &PostgresRuns{pool: pool, log: logger}, nil
}

func (r *PostgresRuns) Record(ctx context.Context, run entity.VerificationRun) error {
	keys, err := encodeKeys(run.InvalidKeys)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO verification_runs (
			id, request_id, document_type, source, content_type, pages, outcome, status_code,
			fields_total, fields_invalid, invalid_keys, error_message, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)`,
		run.ID, run.RequestID, run.DocumentType, run.Source, run.ContentType, run.Pages, string(run.Outcome), run.StatusCode,
		run.FieldsTotal, run.FieldsInvalid, keys, run.ErrorMessage, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		r.log.Error("verification_run insert failed", "run_id", run.ID, "err", err)
		return err
	}
	r.log.Debug("verification_run recorded", "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

func (r *PostgresRuns) List(ctx context.Context, filter RunFilter) ([]entity.VerificationRun, error) {
	where, args := filter.whereClause(func(n int) string { return "$" + strconv.Itoa(n) })
	args = append(args, filter.limit())
	q := `SELECT id, request_id, document_type, source, content_type, pages, outcome, status_code,
		fields_total, fields_invalid, invalid_keys, error_message, started_at, finished_at
		FROM verification_runs` + where + ` ORDER BY started_at DESC, id LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.log.Error("verification_run list failed", "err", err)
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.VerificationRun, error) {
		var (
			run     entity.VerificationRun
			outcome string
			keys    []byte
		)
		if err := row.Scan(&run.ID, &run.RequestID, &run.DocumentType, &run.Source, &run.ContentType, &run.Pages,
			&outcome, &run.StatusCode, &run.FieldsTotal, &run.FieldsInvalid, &keys, &run.ErrorMessage,
			&run.StartedAt, &run.FinishedAt); err != nil {
			return run, err
		}
		run.Outcome = constants.RunOutcome(outcome)
		run.StartedAt = run.StartedAt.UTC()
		run.FinishedAt = run.FinishedAt.UTC()
		invalid, err := decodeKeys(keys)
		run.InvalidKeys = invalid
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan verification_runs: %w", err)
	}
	return out, nil
}

func (r *PostgresRuns) Ping(ctx context.Context) error {
	return HealthCheck(ctx, r.pool, 0, r.log)
}

func (r *PostgresRuns) Close() error {
	r.log.Info("closing database connections")
	r.pool.Close()
	return nil
}
