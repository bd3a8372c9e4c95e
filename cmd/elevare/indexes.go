package main

import (
	"context"
	"fmt"
	"time"

	"github.com/elevare/elevare-backend-go/internal/config"
	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/observability"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

const readyPollInterval = 250 * time.Millisecond

// runIndexes connects to MongoDB, waits for it to become ready and creates
// the collection indexes.
func runIndexes(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*cfg.MongoConnectTimeout)
	defer cancel()

	st, err := connectMongo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if err := waitConnected(ctx, st.Readiness(), readyPollInterval); err != nil {
		return err
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info("indexes ensured", zap.String("database", cfg.MongoDatabase))
	return nil
}

// waitConnected blocks until ready reports Connected or ctx ends.
func waitConnected(ctx context.Context, ready port.Readiness, every time.Duration) error {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for ready.State() != domain.Connected {
		select {
		case <-ctx.Done():
			return fmt.Errorf("store not ready: %w", ctx.Err())
		case <-tick.C:
		}
	}
	return nil
}

// ensureIndexesWhenReady runs ensure once, on the first Connected state.
// Failures are logged; the server keeps serving and the indexes command can
// be re-run by hand.
func ensureIndexesWhenReady(ctx context.Context, ready port.Readiness, every time.Duration,
	ensure func(context.Context) error, logger *zap.Logger) error {
	if err := waitConnected(ctx, ready, every); err != nil {
		logger.Warn("indexes skipped", zap.Error(err))
		return err
	}
	if err := ensure(ctx); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
