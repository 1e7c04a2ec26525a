package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docverify/internal/common"
	repo "github.com/joseph-ayodele/docverify/internal/repository"
)

// ConnectRunStore opens the audit store named by cfg.DSN. Pool settings
// left at zero fall back to daemon defaults.
func ConnectRunStore(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (repo.RunStore, error) {
	rc := repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}
	if rc.MaxConns == 0 {
		rc.MaxConns = 20
	}
	if rc.MinConns == 0 {
		rc.MinConns = 2
	}
	if rc.MaxConnLifetime == 0 {
		rc.MaxConnLifetime = 30 * time.Minute
	}
	if rc.MaxConnIdleTime == 0 {
		rc.MaxConnIdleTime = 5 * time.Minute
	}
	if rc.DialTimeout == 0 {
		rc.DialTimeout = 3 * time.Second
	}

	store, err := repo.Open(ctx, rc, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	return store, nil
}

// PingDB pings the store to ensure it's responsive
func PingDB(ctx context.Context, store repo.RunStore, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := store.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// CloseDB closes the store gracefully
func CloseDB(store repo.RunStore, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database connections closed")
}
