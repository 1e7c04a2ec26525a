package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/entity"
)

func newRun(docType string, outcome constants.RunOutcome, started time.Time) entity.VerificationRun {
	return entity.VerificationRun{
		ID:           uuid.New(),
		RequestID:    uuid.NewString(),
		DocumentType: docType,
		Source:       "scan.pdf",
		ContentType:  constants.ContentTypePDF,
		Pages:        2,
		Outcome:      outcome,
		StatusCode:   200,
		FieldsTotal:  5,
		StartedAt:    started,
		FinishedAt:   started.Add(1500 * time.Millisecond),
	}
}

func openMemory(t *testing.T) *SQLiteRuns {
	t.Helper()
	store, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRuns_RecordAndList(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)

	soft := newRun("aadhaar", constants.RunOutcomeInvalid, base.Add(time.Minute))
	soft.FieldsInvalid = 2
	soft.InvalidKeys = []string{"date_of_birth", "gender"}
	failed := newRun("marksheet", constants.RunOutcomeFailed, base.Add(2*time.Minute))
	failed.StatusCode = 500
	failed.ErrorMessage = "[OCR] non-2xx status: 502"

	for _, r := range []entity.VerificationRun{newRun("aadhaar", constants.RunOutcomeValid, base), soft, failed} {
		require.NoError(t, store.Record(ctx, r))
	}

	all, err := store.List(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, failed.ID, all[0].ID, "newest first")
	assert.Equal(t, failed.ErrorMessage, all[0].ErrorMessage)
	assert.True(t, all[0].StartedAt.Equal(failed.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, all[0].Duration())
	assert.Equal(t, []string{"date_of_birth", "gender"}, all[1].InvalidKeys)
	assert.Nil(t, all[2].InvalidKeys)
}

func TestSQLiteRuns_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := openMemory(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		docType, outcome := "aadhaar", constants.RunOutcomeValid
		if i%2 == 1 {
			docType, outcome = "birth_cert", constants.RunOutcomeMismatch
		}
		require.NoError(t, store.Record(ctx, newRun(docType, outcome, base.Add(time.Duration(i)*time.Hour))))
	}

	from := base.Add(2 * time.Hour)
	to := base.Add(4 * time.Hour)
	tests := []struct {
		name   string
		filter RunFilter
		want   int
	}{
		{name: "no filter", filter: RunFilter{}, want: 6},
		{name: "document type", filter: RunFilter{DocumentType: "birth_cert"}, want: 3},
		{name: "outcome", filter: RunFilter{Outcome: constants.RunOutcomeValid}, want: 3},
		{name: "window inclusive", filter: RunFilter{From: &from, To: &to}, want: 3},
		{name: "from only", filter: RunFilter{From: &to}, want: 2},
		{name: "combined", filter: RunFilter{DocumentType: "aadhaar", From: &from}, want: 2},
		{name: "limit", filter: RunFilter{Limit: 4}, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, runs, tt.want)
		})
	}
}

func TestOpen_SelectsBackendByScheme(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRuns{}, store)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	_, err = Open(ctx, Config{DSN: "mysql://localhost/db"}, nil)
	assert.ErrorContains(t, err, "unsupported")

	_, err = Open(ctx, Config{}, nil)
	assert.Error(t, err)
}

func TestRunFilter_WhereClausePlaceholders(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args := RunFilter{DocumentType: "aadhaar", Outcome: constants.RunOutcomeValid, From: &from}.
		whereClause(func(n int) string { return "$" + string(rune('0'+n)) })
	assert.Equal(t, " WHERE document_type = $1 AND outcome = $2 AND started_at >= $3", where)
	assert.Equal(t, []any{"aadhaar", "VALID", from}, args)

	where, args = RunFilter{}.whereClause(func(int) string { return "?" })
	assert.Empty(t, where)
	assert.Nil(t, args)
}
