package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/entity"
)

const defaultListLimit = 1000

// RunStore persists verification runs.
type RunStore interface {
	Record(ctx context.Context, run entity.VerificationRun) error
	List(ctx context.Context, filter RunFilter) ([]entity.VerificationRun, error)
	Ping(ctx context.Context) error
	Close() error
}

// RunFilter narrows List. Zero values match everything; From and To bound
// started_at inclusively.
type RunFilter struct {
	DocumentType string
	Outcome      constants.RunOutcome
	From         *time.Time
	To           *time.Time
	Limit        int
}

// Open picks a backend from the DSN scheme: postgres:// or postgresql://
// use pgx, sqlite: or file: use modernc sqlite. The schema is created if
// missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (RunStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, cfg, logger)
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"), logger)
	case strings.HasPrefix(dsn, "file:"):
		return OpenSQLite(ctx, dsn, logger)
	case dsn == "":
		return nil, fmt.Errorf("empty database dsn")
	default:
		return nil, fmt.Errorf("unsupported database dsn scheme: %q", strings.SplitN(dsn, ":", 2)[0])
	}
}

// whereClause renders the filter with placeholders produced by ph(n), n
// counting from 1.
func (f RunFilter) whereClause(ph func(n int) string) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, ph(len(args))))
	}
	if f.DocumentType != "" {
		add("document_type = %s", f.DocumentType)
	}
	if f.Outcome != "" {
		add("outcome = %s", string(f.Outcome))
	}
	if f.From != nil {
		add("started_at >= %s", *f.From)
	}
	if f.To != nil {
		add("started_at <= %s", *f.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func encodeKeys(keys []string) (string, error) {
	if keys == nil {
		keys = []string{}
	}
	b, err := json.Marshal(keys)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeKeys(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode invalid_keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return keys, nil
}
