package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// Repository is a port.Repository over one collection.
type Repository[T any] struct {
	coll     *mongo.Collection
	ready    port.Readiness
	resource string
}

// NewRepository binds a repository to a collection. resource names the
// entity in error messages ("Lead not found").
func NewRepository[T any](s *Store, collection, resource string) *Repository[T] {
	return &Repository[T]{
		coll:     s.db.Collection(collection),
		ready:    s.ready,
		resource: resource,
	}
}

func (r *Repository[T]) List(ctx context.Context, scope domain.Scope, q domain.Query) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Repository.List")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", r.coll.Name()))

	if err := readiness.Check(r.ready); err != nil {
		return nil, err
	}

	cur, err := r.coll.Find(ctx, buildFilter("", scope, q.Match, q.After), findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.coll.Name(), err)
	}
	return out, nil
}

func (r *Repository[T]) Get(ctx context.Context, id string, scope domain.Scope) (*T, error) {
	ctx, span := tracer.Start(ctx, "Repository.Get")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", r.coll.Name()))

	if err := readiness.Check(r.ready); err != nil {
		return nil, err
	}

	var doc T
	err := r.coll.FindOne(ctx, buildFilter(id, scope, nil, nil)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &domain.ErrNotFound{Resource: r.resource}
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.coll.Name(), err)
	}
	return &doc, nil
}

func (r *Repository[T]) Insert(ctx context.Context, doc *T) error {
	ctx, span := tracer.Start(ctx, "Repository.Insert")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", r.coll.Name()))

	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s already exists", r.resource)}
		}
		return fmt.Errorf("insert %s: %w", r.coll.Name(), err)
	}
	return nil
}

func (r *Repository[T]) Replace(ctx context.Context, id string, scope domain.Scope, cond domain.Match, doc *T) error {
	ctx, span := tracer.Start(ctx, "Repository.Replace")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", r.coll.Name()))

	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	res, err := r.coll.ReplaceOne(ctx, buildFilter(id, scope, cond, nil), doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s already exists", r.resource)}
		}
		return fmt.Errorf("replace %s: %w", r.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return &domain.ErrNotFound{Resource: r.resource}
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string, scope domain.Scope) error {
	ctx, span := tracer.Start(ctx, "Repository.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("db.collection", r.coll.Name()))

	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, buildFilter(id, scope, nil, nil))
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return &domain.ErrNotFound{Resource: r.resource}
	}
	return nil
}
