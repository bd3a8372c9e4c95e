// Package memstore is an in-memory port.Repository. Records are kept as
// BSON documents so filters, scopes and sorting behave like the MongoDB
// store. Used by the memory backend and by tests.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository stores documents of type T in memory.
type Repository[T any] struct {
	mu       sync.RWMutex
	docs     map[string]bson.M
	ready    port.Readiness
	resource string
	unique   []string
}

// NewRepository returns an empty repository. unique names fields whose
// values must not repeat across records.
func NewRepository[T any](ready port.Readiness, resource string, unique ...string) *Repository[T] {
	return &Repository[T]{
		docs:     make(map[string]bson.M),
		ready:    ready,
		resource: resource,
		unique:   unique,
	}
}

func (r *Repository[T]) List(_ context.Context, scope domain.Scope, q domain.Query) ([]T, error) {
	if err := readiness.Check(r.ready); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var hits []bson.M
	for _, d := range r.docs {
		if matches(d, scope, q.Match, q.After) {
			hits = append(hits, d)
		}
	}
	r.mu.RUnlock()

	field := q.SortField
	if field == "" {
		field = "createdAt"
	}
	sort.SliceStable(hits, func(i, j int) bool {
		c := compare(lookup(hits[i], field), lookup(hits[j], field))
		if c == 0 {
			c = compare(hits[i]["_id"], hits[j]["_id"])
		}
		if q.SortAsc {
			return c < 0
		}
		return c > 0
	})
	if q.Limit > 0 && int64(len(hits)) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]T, 0, len(hits))
	for _, d := range hits {
		var v T
		if err := decode(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Repository[T]) Get(_ context.Context, id string, scope domain.Scope) (*T, error) {
	if err := readiness.Check(r.ready); err != nil {
		return nil, err
	}

	r.mu.RLock()
	d, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok || !matches(d, scope, nil, nil) {
		return nil, &domain.ErrNotFound{Resource: r.resource}
	}

	var v T
	if err := decode(d, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository[T]) Insert(_ context.Context, doc *T) error {
	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	d, err := encode(doc)
	if err != nil {
		return err
	}
	id, _ := d["_id"].(string)
	if id == "" {
		return fmt.Errorf("insert %s: missing _id", r.resource)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[id]; exists || r.violatesUnique(id, d) {
		return &domain.ErrConflict{Message: fmt.Sprintf("%s already exists", r.resource)}
	}
	r.docs[id] = d
	return nil
}

func (r *Repository[T]) Replace(_ context.Context, id string, scope domain.Scope, cond domain.Match, doc *T) error {
	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	d, err := encode(doc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[id]
	if !ok || !matches(cur, scope, cond, nil) {
		return &domain.ErrNotFound{Resource: r.resource}
	}
	if r.violatesUnique(id, d) {
		return &domain.ErrConflict{Message: fmt.Sprintf("%s already exists", r.resource)}
	}
	d["_id"] = id
	r.docs[id] = d
	return nil
}

func (r *Repository[T]) Delete(_ context.Context, id string, scope domain.Scope) error {
	if err := readiness.Check(r.ready); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[id]
	if !ok || !matches(cur, scope, nil, nil) {
		return &domain.ErrNotFound{Resource: r.resource}
	}
	delete(r.docs, id)
	return nil
}

// Len returns the number of stored records.
func (r *Repository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *Repository[T]) violatesUnique(id string, d bson.M) bool {
	for _, f := range r.unique {
		v := lookup(d, f)
		if v == nil {
			continue
		}
		for otherID, other := range r.docs {
			if otherID != id && equal(lookup(other, f), v) {
				return true
			}
		}
	}
	return false
}

// ============================================================
// Document helpers
// ============================================================

func encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var d bson.M
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return d, nil
}

func decode(d bson.M, v any) error {
	raw, err := bson.Marshal(d)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func matches(d bson.M, scope domain.Scope, match domain.Match, after *domain.TimeBound) bool {
	if !scope.Global {
		owned := false
		for _, f := range scope.Fields {
			if equal(lookup(d, f), scope.OwnerID) {
				owned = true
				break
			}
		}
		if !owned {
			return false
		}
	}
	for k, want := range match {
		if !equal(lookup(d, k), want) {
			return false
		}
	}
	if after != nil {
		t, ok := normalize(lookup(d, after.Field)).(time.Time)
		if !ok || !t.After(after.Time) {
			return false
		}
	}
	return true
}

// lookup resolves a dotted path such as "budget.currency".
func lookup(d bson.M, path string) any {
	var cur any = d
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(bson.M)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func normalize(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case domain.Role:
		return string(x)
	}
	return v
}

func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if ta, ok := na.(time.Time); ok {
		tb, ok := nb.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(na, nb)
}

func compare(a, b any) int {
	na, nb := normalize(a), normalize(b)
	switch x := na.(type) {
	case time.Time:
		y, _ := nb.(time.Time)
		return x.Compare(y)
	case string:
		y, _ := nb.(string)
		return strings.Compare(x, y)
	case int64:
		y, _ := nb.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case float64:
		y, _ := nb.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	if na == nil && nb != nil {
		return -1
	}
	if na != nil && nb == nil {
		return 1
	}
	return 0
}
