// Package service holds the application logic: credential checks, token
// issuing, and ownership-scoped CRUD for every entity. Handlers call into
// services with the authenticated domain.Principal; services consult the
// policy tables and push the resulting scope into the repository.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// record is satisfied by a pointer to any entity in the domain package.
type record[T any] interface {
	*T
	Base() *domain.Meta
	AssignOwner(domain.Principal)
	KeepOwner(prev *T)
	ApplyDefaults()
}

// UpdateGuard inspects an update before it is written. prev is the stored
// record and next the patched one.
type UpdateGuard[T any] func(ctx context.Context, p domain.Principal, prev, next *T) error

// Resource is ownership-scoped CRUD over one entity type. Every method runs
// the role gate first, then derives the caller's scope and hands it to the
// repository so out-of-scope records are never read.
type Resource[T any, P record[T]] struct {
	kind   policy.Resource
	repo   port.Repository[T]
	logger *zap.Logger
	guard  UpdateGuard[T]
	now    func() time.Time
}

// NewResource builds a Resource. P is inferred from T.
func NewResource[T any, P record[T]](kind policy.Resource, repo port.Repository[T], logger *zap.Logger) *Resource[T, P] {
	return &Resource[T, P]{
		kind:   kind,
		repo:   repo,
		logger: logger,
		now:    now,
	}
}

// WithUpdateGuard installs a check that runs on every Update.
func (r *Resource[T, P]) WithUpdateGuard(g UpdateGuard[T]) *Resource[T, P] {
	r.guard = g
	return r
}

// now returns the current time at the precision the store keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *Resource[T, P]) List(ctx context.Context, p domain.Principal, q domain.Query) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Resource.List")
	defer span.End()
	span.SetAttributes(attribute.String("resource", string(r.kind)))

	if err := policy.Authorize(p, r.kind, policy.List); err != nil {
		return nil, err
	}
	items, err := r.repo.List(ctx, policy.ScopeFor(p, r.kind, policy.List), q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind, err)
	}
	return items, nil
}

func (r *Resource[T, P]) Get(ctx context.Context, p domain.Principal, id string) (*T, error) {
	ctx, span := tracer.Start(ctx, "Resource.Get")
	defer span.End()
	span.SetAttributes(attribute.String("resource", string(r.kind)), attribute.String("id", id))

	if err := policy.Authorize(p, r.kind, policy.Read); err != nil {
		return nil, err
	}
	doc, err := r.repo.Get(ctx, id, policy.ScopeFor(p, r.kind, policy.Read))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.kind, err)
	}
	return doc, nil
}

// Create forces the owner to the caller, applies schema defaults, stamps
// identity and validates before inserting.
func (r *Resource[T, P]) Create(ctx context.Context, p domain.Principal, doc *T) (*T, error) {
	ctx, span := tracer.Start(ctx, "Resource.Create")
	defer span.End()
	span.SetAttributes(attribute.String("resource", string(r.kind)))

	if err := policy.Authorize(p, r.kind, policy.Create); err != nil {
		return nil, err
	}

	rec := P(doc)
	rec.AssignOwner(p)
	rec.ApplyDefaults()
	rec.Base().Stamp(r.now())
	if err := domain.Validate(doc); err != nil {
		return nil, err
	}
	if err := r.repo.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("create %s: %w", r.kind, err)
	}

	r.logger.Info(string(r.kind)+" created",
		zap.String("id", rec.Base().ID),
		zap.String("user_id", p.UserID),
	)
	return doc, nil
}

// Update merges a partial JSON body onto the stored record. Identity,
// creation time and owner fields keep their stored values.
func (r *Resource[T, P]) Update(ctx context.Context, p domain.Principal, id string, patch json.RawMessage) (*T, error) {
	ctx, span := tracer.Start(ctx, "Resource.Update")
	defer span.End()
	span.SetAttributes(attribute.String("resource", string(r.kind)), attribute.String("id", id))

	return r.mutate(ctx, p, id, policy.Update, nil, nil, func(prev, next *T) error {
		if err := json.Unmarshal(patch, next); err != nil {
			return domain.NewValidation("request body must be a JSON object")
		}
		P(next).KeepOwner(prev)
		if r.guard != nil {
			return r.guard(ctx, p, prev, next)
		}
		return nil
	})
}

func (r *Resource[T, P]) Delete(ctx context.Context, p domain.Principal, id string) error {
	ctx, span := tracer.Start(ctx, "Resource.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("resource", string(r.kind)), attribute.String("id", id))

	if err := policy.Authorize(p, r.kind, policy.Delete); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, id, policy.ScopeFor(p, r.kind, policy.Delete)); err != nil {
		return fmt.Errorf("delete %s: %w", r.kind, err)
	}

	r.logger.Info(string(r.kind)+" deleted", zap.String("id", id), zap.String("user_id", p.UserID))
	return nil
}

// mutate loads the record under the caller's scope for act, lets apply edit
// a private copy, then re-validates and writes it back under the same scope
// and cond. When cond no longer holds at write time, lost is returned.
func (r *Resource[T, P]) mutate(ctx context.Context, p domain.Principal, id string, act policy.Action, cond domain.Match, lost error, apply func(prev, next *T) error) (*T, error) {
	if err := policy.Authorize(p, r.kind, act); err != nil {
		return nil, err
	}
	scope := policy.ScopeFor(p, r.kind, act)

	prev, err := r.repo.Get(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", act, r.kind, err)
	}
	next, err := clone(prev)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", act, r.kind, err)
	}
	if err := apply(prev, next); err != nil {
		return nil, err
	}

	P(next).Base().Restore(P(prev).Base(), r.now())
	P(next).ApplyDefaults()
	if err := domain.Validate(next); err != nil {
		return nil, err
	}
	if err := r.repo.Replace(ctx, id, scope, cond, next); err != nil {
		var nf *domain.ErrNotFound
		if lost != nil && errors.As(err, &nf) {
			return nil, lost
		}
		return nil, fmt.Errorf("%s %s: %w", act, r.kind, err)
	}
	return next, nil
}

// clone deep-copies a record through its stored representation, so edits
// to the copy never alias nested values of the original.
func clone[T any](v *T) (*T, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return out, nil
}
