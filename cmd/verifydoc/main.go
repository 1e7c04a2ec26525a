package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/pipeline"
)

type output struct {
	RequestID    string        `json:"request_id"`
	DocumentType string        `json:"document_type"`
	Valid        bool          `json:"valid"`
	Pages        int           `json:"pages"`
	Fields       []outputField `json:"fields"`
	Entity       []any         `json:"entity,omitempty"`
	Error        *outputError  `json:"error,omitempty"`
	DurationMS   int64         `json:"duration_ms"`
}

type outputField struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Valid bool   `json:"valid"`
}

type outputError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func main() {
	docType := flag.String("type", "", "document type to verify against (required)")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline")
	flag.Parse()

	if *docType == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: verifydoc -type <document_type> <file.pdf|png|jpg>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the report
	cfg.Log.Format = "text"
	logger := common.NewLoggerTo(os.Stderr, cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	verifier := pipeline.NewVerifierFromConfig(cfg, logger, nil)

	start := time.Now()
	report, err := verifier.Verify(ctx, pipeline.VerifyRequest{
		DocumentType: *docType,
		SourcePath:   path,
		Source:       path,
	})

	out := output{
		RequestID:    report.RequestID,
		DocumentType: report.DocumentType,
		Valid:        report.Valid,
		Pages:        report.Pages,
		Fields:       make([]outputField, 0, len(report.Fields)),
		DurationMS:   time.Since(start).Milliseconds(),
	}
	for _, f := range report.Fields {
		out.Fields = append(out.Fields, outputField{Key: f.Key, Value: f.Value, Valid: f.Valid})
	}
	if !report.Valid {
		out.Entity = report.Entity
	}
	if err != nil {
		out.DocumentType = *docType
		out.Error = &outputError{Status: common.HTTPStatus(err), Message: err.Error()}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", encErr)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}
