package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/memstore"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"

	"github.com/stretchr/testify/require"
)

// --- Fixtures ---

var (
	alice   = domain.Principal{UserID: "u-alice", Role: domain.RoleAgent}
	bob     = domain.Principal{UserID: "u-bob", Role: domain.RoleAgent}
	manager = domain.Principal{UserID: "u-mgr", Role: domain.RoleManager}
	admin   = domain.Principal{UserID: "u-admin", Role: domain.RoleAdmin}
	coach   = domain.Principal{UserID: "u-coach", Role: domain.RoleCoach}
	lord    = domain.Principal{UserID: "u-lord", Role: domain.RoleLandlord}
	tenant  = domain.Principal{UserID: "u-tenant", Role: domain.RoleAgent}
)

func connected() *readiness.Tracker {
	return readiness.New(domain.Connected, nil)
}

func newRepo[T any](ready *readiness.Tracker, resource string, unique ...string) *memstore.Repository[T] {
	return memstore.NewRepository[T](ready, resource, unique...)
}

func ptr[T any](v T) *T { return &v }

// --- Mocks ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, msg *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[string][]domain.Notification)
	}
	n.sent[userID] = append(n.sent[userID], *msg)
	return nil
}

func (n *recordingNotifier) For(userID string) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[userID]
}

type stubAnalyzer struct {
	call  *domain.CallAnalysis
	moods *domain.MoodCorrelation
	err   error
	seen  int
}

func (a *stubAnalyzer) AnalyzeCall(context.Context, string) (*domain.CallAnalysis, error) {
	return a.call, a.err
}

func (a *stubAnalyzer) AnalyzeMoods(_ context.Context, entries []domain.MoodEntry) (*domain.MoodCorrelation, error) {
	a.seen = len(entries)
	return a.moods, a.err
}

// --- Assertions ---

func requireAs[E error](t *testing.T, err error) E {
	t.Helper()
	var target E
	require.Error(t, err)
	require.True(t, errors.As(err, &target), "expected %T, got %v", target, err)
	return target
}
