// Package mongostore persists entities in MongoDB. The connection state is
// tracked by a background ping loop and checked before every operation.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/mongostore")

// Config holds connection parameters.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	PingInterval   time.Duration
}

// Store owns the MongoDB client and its readiness state.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	ready  *readiness.Tracker
	cfg    Config
	logger *zap.Logger
	stop   context.CancelFunc
	done   chan struct{}
}

// Connect creates the client and starts the readiness monitor. The driver
// connects lazily, so an unreachable server does not fail Connect: the
// store stays Connecting or Disconnected until a ping succeeds.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	tracker := readiness.New(domain.Connecting, func(from, to domain.ConnState) {
		logger.Info("mongodb connection state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		tracker.Set(domain.Disconnected)
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	monitorCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		client: client,
		db:     client.Database(cfg.Database),
		ready:  tracker,
		cfg:    cfg,
		logger: logger,
		stop:   cancel,
		done:   make(chan struct{}),
	}

	s.ping(ctx)
	go s.monitor(monitorCtx)

	return s, nil
}

// Readiness exposes the connection state.
func (s *Store) Readiness() *readiness.Tracker {
	return s.ready
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Close stops the monitor and disconnects.
func (s *Store) Close(ctx context.Context) error {
	s.stop()
	<-s.done
	s.ready.Set(domain.Disconnected)
	return s.client.Disconnect(ctx)
}

func (s *Store) monitor(ctx context.Context) {
	defer close(s.done)

	interval := s.cfg.PingInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ping(ctx)
		}
	}
}

func (s *Store) ping(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		if s.ready.State() == domain.Connected {
			s.logger.Warn("mongodb ping failed", zap.Error(err))
		}
		s.ready.Set(domain.Disconnected)
		return
	}
	s.ready.Set(domain.Connected)
}
