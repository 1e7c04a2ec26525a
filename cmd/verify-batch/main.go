package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docverify/constants"
	"github.com/joseph-ayodele/docverify/internal/async"
	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/export"
	"github.com/joseph-ayodele/docverify/internal/ingest"
	"github.com/joseph-ayodele/docverify/internal/pipeline"
	repo "github.com/joseph-ayodele/docverify/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of documents to verify (required)")
		docType = flag.String("type", "", "document type every file is checked against (required)")
		inmem   = flag.Bool("inmem", false, "record runs in an in-memory SQLite database")
		dbPath  = flag.String("db", "", "SQLite file (or DSN) to record runs in; defaults to <dir>/../runs.db")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 2, "documents verified concurrently")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	canonical, ok := constants.CanonicalDocumentType(*docType)
	if !ok {
		printError("Error: --type must be one of %v\n", constants.DocumentTypesAsStringSlice())
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "verification_runs.xlsx")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := "sqlite::memory:"
	switch {
	case *inmem:
	case *dbPath != "":
		dsn = *dbPath
		if !hasScheme(dsn) {
			dsn = "sqlite:" + dsn
		}
	default:
		dsn = "sqlite:" + filepath.Join(filepath.Dir(*dir), "runs.db")
	}
	store, err := repo.Open(ctx, repo.Config{DSN: dsn}, logger)
	if err != nil {
		logger.Error("failed to open database", "dsn", dsn, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("close database", "error", cerr)
		}
	}()

	verifier := pipeline.NewVerifierFromConfig(cfg, logger, store)
	started := time.Now().UTC()

	var valid, invalid, failed atomic.Int64
	queue := async.NewProcessorQueue(func(ctx context.Context, job async.Job) error {
		report, err := verifier.Verify(ctx, pipeline.VerifyRequest{
			DocumentType: job.DocumentType,
			SourcePath:   job.Path,
			Source:       job.Path,
		})
		switch {
		case err != nil:
			failed.Add(1)
			return err
		case report.Valid:
			valid.Add(1)
		default:
			invalid.Add(1)
			logger.Warn("document has empty fields", "path", job.Path, "fields", report.InvalidKeys())
		}
		return nil
	}, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(64),
		async.WithProcessTimeout(5*time.Minute),
	)

	logger.Info("starting batch", "dir", *dir, "document_type", canonical)
	_, stats, err := ingest.WalkDirectory(ctx, *dir, true, func(ctx context.Context, path string) error {
		return queue.Enqueue(ctx, async.Job{Path: path, DocumentType: string(canonical)})
	})
	queue.Shutdown(context.Background())
	if err != nil {
		logger.Error("failed to walk directory", "error", err)
		os.Exit(1)
	}
	logger.Info("walk complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"queued", stats.Succeeded,
		"not_queued", stats.Failed)

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(store, logger).RunsXLSX(ctx, repo.RunFilter{From: &started})
	if err != nil {
		logger.Error("failed to export runs", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch verification complete!\n")
	fmt.Printf("- Files matched: %d\n", stats.Matched)
	fmt.Printf("- Valid: %d\n", valid.Load())
	fmt.Printf("- Missing fields: %d\n", invalid.Load())
	fmt.Printf("- Failures: %d\n", failed.Load())
	fmt.Printf("- Output: %s\n", *out)
}

func hasScheme(dsn string) bool {
	for _, p := range []string{"sqlite:", "file:", "postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, p) {
			return true
		}
	}
	return false
}
