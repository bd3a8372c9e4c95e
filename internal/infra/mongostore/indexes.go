package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collection names.
const (
	Users         = "users"
	Leads         = "leads"
	Calls         = "calls"
	Tasks         = "tasks"
	Moods         = "moodentries"
	Properties    = "properties"
	Payments      = "payments"
	Documents     = "documents"
	Notifications = "notifications"
)

func ownerIndex(fields ...string) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}, {Key: "createdAt", Value: -1}}})
	}
	return models
}

// indexPlan lists the indexes each collection needs: owner lookups sorted by
// recency, the unique email constraint and the reset token lookup.
var indexPlan = map[string][]mongo.IndexModel{
	Users: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	Leads:         ownerIndex("agent"),
	Calls:         ownerIndex("agent"),
	Tasks:         ownerIndex("agent", "assignedTo"),
	Moods:         {{Keys: bson.D{{Key: "agent", Value: 1}, {Key: "date", Value: 1}}}},
	Properties:    ownerIndex("landlord"),
	Payments:      ownerIndex("landlord", "tenant"),
	Documents:     ownerIndex("owner"),
	Notifications: ownerIndex("user"),
}

// EnsureIndexes creates every index in the plan, one collection per
// goroutine. Creating an existing index is a no-op on the server.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Store.EnsureIndexes")
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	for coll, models := range indexPlan {
		coll, models := coll, models
		g.Go(func() error {
			names, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models)
			if err != nil {
				return fmt.Errorf("create indexes on %s: %w", coll, err)
			}
			s.logger.Info("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
			return nil
		})
	}
	return g.Wait()
}
