package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

func TestGateAcceptAllowList(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantKind    constants.Kind
		wantExt     string
		wantErr     error
	}{
		{"pdf", "application/pdf", constants.KindPDF, ".pdf", nil},
		{"png", "image/png", constants.KindImage, ".png", nil},
		{"jpeg", "image/jpeg", constants.KindImage, ".jpg", nil},
		{"params and case", "Image/PNG; charset=binary", constants.KindImage, ".png", nil},
		{"gif", "image/gif", "", "", common.ErrUnsupportedMediaType},
		{"empty", "", "", "", common.ErrUnsupportedMediaType},
		{"octet stream", "application/octet-stream", "", "", common.ErrUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "scratch")
			g := NewGate(dir, 0, nil)
			reaper := scratch.NewReaper(nil)
			ctx := common.WithRequestID(context.Background(), "req-1")

			doc, err := g.Accept(ctx, strings.NewReader("payload"), tt.contentType, reaper)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, reaper.Tracked())
				_, statErr := os.Stat(dir)
				assert.True(t, os.IsNotExist(statErr), "no I/O before the type check")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, doc.Kind)
			assert.Equal(t, tt.wantExt, filepath.Ext(doc.Path))
			assert.True(t, strings.HasPrefix(filepath.Base(doc.Path), "upload_req-1_"))
			assert.Equal(t, []string{doc.Path}, reaper.Tracked())

			b, err := os.ReadFile(doc.Path)
			require.NoError(t, err)
			assert.Equal(t, "payload", string(b))

			reaper.Cleanup()
			assert.NoFileExists(t, doc.Path)
		})
	}
}

func TestGateAcceptTooLarge(t *testing.T) {
	g := NewGate(t.TempDir(), 4, nil)
	reaper := scratch.NewReaper(nil)

	_, err := g.Accept(context.Background(), strings.NewReader("12345"), "image/png", reaper)
	require.ErrorIs(t, err, common.ErrUploadTooLarge)
	tracked := reaper.Tracked()
	require.Len(t, tracked, 1, "partial file is still reaped")

	reaper.Cleanup()
	assert.NoFileExists(t, tracked[0])
}

func TestGateAcceptEmpty(t *testing.T) {
	g := NewGate(t.TempDir(), 0, nil)
	_, err := g.Accept(context.Background(), strings.NewReader(""), "application/pdf", scratch.NewReaper(nil))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGateConcurrentNamesAreUnique(t *testing.T) {
	g := NewGate(t.TempDir(), 0, nil)
	reaper := scratch.NewReaper(nil)

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, _ := common.EnsureRequestID(context.Background())
			_, errs[i] = g.Accept(ctx, strings.NewReader("x"), "image/jpeg", reaper)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, reaper.Tracked(), n)
	seen := map[string]bool{}
	for _, p := range reaper.Tracked() {
		assert.False(t, seen[p], "duplicate scratch name %s", p)
		seen[p] = true
	}
	reaper.Cleanup()
}

func TestGateIngestPath(t *testing.T) {
	src := filepath.Join(t.TempDir(), "scan.JPEG")
	require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0o600))

	g := NewGate(t.TempDir(), 0, nil)
	reaper := scratch.NewReaper(nil)
	defer reaper.Cleanup()

	doc, err := g.IngestPath(context.Background(), src, reaper)
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypeJPEG, doc.ContentType)
	assert.Equal(t, constants.KindImage, doc.Kind)
	assert.NotEqual(t, src, doc.Path)

	_, err = g.IngestPath(context.Background(), filepath.Join(t.TempDir(), "notes.txt"), reaper)
	assert.ErrorIs(t, err, common.ErrUnsupportedMediaType)
}
