package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docverify/internal/common"
	"github.com/joseph-ayodele/docverify/internal/export"
	"github.com/joseph-ayodele/docverify/internal/pipeline"
	"github.com/joseph-ayodele/docverify/internal/repository"
	svc "github.com/joseph-ayodele/docverify/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   repository.RunStore
		runs    pipeline.RunRecorder
		apiOpts []svc.APIOption
	)
	if cfg.Database.DSN != "" {
		store, err = svc.ConnectRunStore(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer svc.CloseDB(store, logger)

		if err := svc.PingDB(ctx, store, logger, 5*time.Second); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		runs = store
		apiOpts = append(apiOpts,
			svc.WithHealthCheck(store),
			svc.WithExport(svc.NewExportHandler(export.NewService(store, logger), logger)),
		)
	} else {
		logger.Warn("DB_URL not set, verification runs will not be recorded")
	}

	if err := os.MkdirAll(cfg.Scratch.Dir, 0o755); err != nil {
		logger.Error("failed to create scratch dir", "dir", cfg.Scratch.Dir, "error", err)
		os.Exit(1)
	}

	verifier := pipeline.NewVerifierFromConfig(cfg, logger, runs)
	api := svc.NewAPI(verifier, cfg.Server.MaxUploadBytes, logger, apiOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := svc.NewGRPCServer(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("docverify grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("docverify http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	// in-flight verifications finish and clean their scratch files
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
}
