package ocr

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/entity"
	"github.com/joseph-ayodele/docverify/internal/scratch"
)

// fakePdftoppm writes "<prefix>.png" containing the page number after a random delay.
type fakePdftoppm struct {
	maxDelay time.Duration
	failPage int
	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	order []int
}

func (f *fakePdftoppm) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	page := 0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-f" {
			page, _ = strconv.Atoi(args[i+1])
		}
	}
	if f.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int63n(int64(f.maxDelay)))):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if page == f.failPage {
		return nil, []byte("Syntax Error: broken xref"), errors.New("exit status 1")
	}

	prefix := args[len(args)-1]
	if err := os.WriteFile(prefix+".png", []byte(strconv.Itoa(page)), 0o600); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	f.order = append(f.order, page)
	f.mu.Unlock()
	return nil, nil, nil
}

func pages(n int) func(string) (int, error) {
	return func(string) (int, error) { return n, nil }
}

func TestRasterizeOrderIndependentOfCompletion(t *testing.T) {
	for _, n := range []int{1, 3, 4, 9, 25} {
		t.Run(fmt.Sprintf("%d pages", n), func(t *testing.T) {
			dir := t.TempDir()
			runner := &fakePdftoppm{maxDelay: 15 * time.Millisecond}
			z := NewRasterizer(RasterConfig{OutDir: dir}, nil, WithRunner(runner), WithPageCounter(pages(n)))
			reaper := scratch.NewReaper(nil)
			ctx := common.WithRequestID(context.Background(), "r1")

			got, err := z.Rasterize(ctx, entity.UploadedDocument{Path: "in.pdf", Kind: constants.KindPDF}, reaper)
			require.NoError(t, err)
			require.Len(t, got, n)
			for i, p := range got {
				assert.Equal(t, i+1, p.Ordinal)
				b, err := os.ReadFile(p.Path)
				require.NoError(t, err)
				assert.Equal(t, strconv.Itoa(i+1), string(b), "image content matches its ordinal")
			}
			assert.LessOrEqual(t, int(runner.peak.Load()), 4, "bounded pool")
			assert.Len(t, reaper.Tracked(), n)

			reaper.Cleanup()
			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries)
		})
	}
}

func TestRasterizePageFailureFailsDocument(t *testing.T) {
	dir := t.TempDir()
	runner := &fakePdftoppm{maxDelay: 5 * time.Millisecond, failPage: 3}
	z := NewRasterizer(RasterConfig{OutDir: dir, Workers: 2}, nil, WithRunner(runner), WithPageCounter(pages(6)))
	reaper := scratch.NewReaper(nil)

	got, err := z.Rasterize(context.Background(), entity.UploadedDocument{Path: "in.pdf", Kind: constants.KindPDF}, reaper)
	require.ErrorIs(t, err, common.ErrConversion)
	assert.Nil(t, got)

	reaper.Cleanup()
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "pages rendered before the failure are reaped")
}

func TestRasterizePageCountError(t *testing.T) {
	z := NewRasterizer(RasterConfig{OutDir: t.TempDir()}, nil,
		WithRunner(&fakePdftoppm{}),
		WithPageCounter(func(string) (int, error) { return 0, errors.New("not a pdf") }))

	_, err := z.Rasterize(context.Background(), entity.UploadedDocument{Path: "in.pdf", Kind: constants.KindPDF}, scratch.NewReaper(nil))
	assert.ErrorIs(t, err, common.ErrConversion)

	z = NewRasterizer(RasterConfig{OutDir: t.TempDir()}, nil, WithRunner(&fakePdftoppm{}), WithPageCounter(pages(0)))
	_, err = z.Rasterize(context.Background(), entity.UploadedDocument{Path: "in.pdf", Kind: constants.KindPDF}, scratch.NewReaper(nil))
	assert.ErrorIs(t, err, common.ErrConversion)
}

func TestRasterizeImagePassThrough(t *testing.T) {
	runner := &fakePdftoppm{}
	z := NewRasterizer(RasterConfig{}, nil, WithRunner(runner), WithPageCounter(func(string) (int, error) {
		t.Fatal("page counter must not run for images")
		return 0, nil
	}))
	reaper := scratch.NewReaper(nil)

	doc := entity.UploadedDocument{Path: filepath.Join("x", "upload.png"), Kind: constants.KindImage}
	got, err := z.Rasterize(context.Background(), doc, reaper)
	require.NoError(t, err)
	assert.Equal(t, []entity.PageImage{{Ordinal: 1, Path: doc.Path}}, got)
	assert.Empty(t, runner.order)
	assert.Empty(t, reaper.Tracked())
}

func TestRasterizePassesDPIAndRange(t *testing.T) {
	var captured []string
	runner := runnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		captured = append([]string{name}, args...)
		return nil, nil, os.WriteFile(args[len(args)-1]+".png", []byte("x"), 0o600)
	})
	z := NewRasterizer(RasterConfig{OutDir: t.TempDir()}, nil, WithRunner(runner), WithPageCounter(pages(1)))
	reaper := scratch.NewReaper(nil)
	defer reaper.Cleanup()

	_, err := z.Rasterize(context.Background(), entity.UploadedDocument{Path: "doc.pdf", Kind: constants.KindPDF}, reaper)
	require.NoError(t, err)
	require.NotEmpty(t, captured)
	assert.Equal(t, []string{"pdftoppm", "-r", "200", "-f", "1", "-l", "1", "-png", "-singlefile", "doc.pdf"}, captured[:len(captured)-1])
}

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}
