package main

import (
	"context"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/config"
	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/memstore"
	"github.com/elevare/elevare-backend-go/internal/infra/mongostore"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

// stores holds one repository per entity plus the shared readiness state.
type stores struct {
	ready         port.Readiness
	users         port.Repository[domain.User]
	leads         port.Repository[domain.Lead]
	calls         port.Repository[domain.Call]
	tasks         port.Repository[domain.Task]
	moods         port.Repository[domain.MoodEntry]
	properties    port.Repository[domain.Property]
	payments      port.Repository[domain.Payment]
	documents     port.Repository[domain.Document]
	notifications port.Repository[domain.Notification]
	// ensureIndexes is nil when the backend has nothing to build.
	ensureIndexes func(context.Context) error
	close         func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return memoryStores(), nil
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
		return mongoStores(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func connectMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongostore.Store, error) {
	return mongostore.Connect(ctx, mongostore.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.MongoConnectTimeout,
		PingInterval:   cfg.MongoPingInterval,
	}, logger)
}

func mongoStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	st, err := connectMongo(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("mongodb configured",
		zap.String("database", cfg.MongoDatabase),
		zap.String("state", st.Readiness().State().String()),
	)

	return &stores{
		ready:         st.Readiness(),
		users:         mongostore.NewRepository[domain.User](st, mongostore.Users, "User"),
		leads:         mongostore.NewRepository[domain.Lead](st, mongostore.Leads, "Lead"),
		calls:         mongostore.NewRepository[domain.Call](st, mongostore.Calls, "Call"),
		tasks:         mongostore.NewRepository[domain.Task](st, mongostore.Tasks, "Task"),
		moods:         mongostore.NewRepository[domain.MoodEntry](st, mongostore.Moods, "Mood entry"),
		properties:    mongostore.NewRepository[domain.Property](st, mongostore.Properties, "Property"),
		payments:      mongostore.NewRepository[domain.Payment](st, mongostore.Payments, "Payment"),
		documents:     mongostore.NewRepository[domain.Document](st, mongostore.Documents, "Document"),
		notifications: mongostore.NewRepository[domain.Notification](st, mongostore.Notifications, "Notification"),
		ensureIndexes: st.EnsureIndexes,
		close:         st.Close,
	}, nil
}

func memoryStores() *stores {
	ready := readiness.New(domain.Connected, nil)
	return &stores{
		ready:         ready,
		users:         memstore.NewRepository[domain.User](ready, "User", "email"),
		leads:         memstore.NewRepository[domain.Lead](ready, "Lead"),
		calls:         memstore.NewRepository[domain.Call](ready, "Call"),
		tasks:         memstore.NewRepository[domain.Task](ready, "Task"),
		moods:         memstore.NewRepository[domain.MoodEntry](ready, "Mood entry"),
		properties:    memstore.NewRepository[domain.Property](ready, "Property"),
		payments:      memstore.NewRepository[domain.Payment](ready, "Payment"),
		documents:     memstore.NewRepository[domain.Document](ready, "Document"),
		notifications: memstore.NewRepository[domain.Notification](ready, "Notification"),
		close:         func(context.Context) error { return nil },
	}
}
