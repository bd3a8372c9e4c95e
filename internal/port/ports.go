package port

import (
	"context"

	"github.com/elevare/elevare-backend-go/internal/domain"
)

// ============================================================
// Persistence
// ============================================================

// Repository stores one entity type. Every read and write takes the
// caller's ownership scope and applies it inside the query; a record
// outside the scope is reported as *domain.ErrNotFound, exactly like an
// absent one. Implementations return *domain.ErrUnavailable, without
// touching storage, when the connection is not ready.
type Repository[T any] interface {
	List(ctx context.Context, scope domain.Scope, q domain.Query) ([]T, error)
	Get(ctx context.Context, id string, scope domain.Scope) (*T, error)
	Insert(ctx context.Context, doc *T) error
	// Replace overwrites the record when it is in scope and also satisfies
	// cond (nil for none).
	Replace(ctx context.Context, id string, scope domain.Scope, cond domain.Match, doc *T) error
	Delete(ctx context.Context, id string, scope domain.Scope) error
}

// Readiness reports the persistence connection state.
type Readiness interface {
	State() domain.ConnState
}

// ============================================================
// External collaborators
// ============================================================

// Mailer sends outbound email.
type Mailer interface {
	Send(ctx context.Context, m domain.Mail) error
}

// Publisher delivers a notification to a user's live connections.
// Delivery is best effort; the return value reports whether any
// connection received it.
type Publisher interface {
	Publish(userID string, n *domain.Notification) bool
}

// Analyzer enriches calls and mood history. Either method may return a nil
// record when it has nothing to add.
type Analyzer interface {
	AnalyzeCall(ctx context.Context, transcription string) (*domain.CallAnalysis, error)
	AnalyzeMoods(ctx context.Context, entries []domain.MoodEntry) (*domain.MoodCorrelation, error)
}

// Limiter counts requests per key in a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string) (domain.RateDecision, error)
}

// ============================================================
// Cache
// ============================================================

// Cache is a generic cache interface.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
