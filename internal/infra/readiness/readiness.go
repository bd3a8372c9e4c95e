// Package readiness tracks the persistence connection state.
package readiness

import (
	"sync/atomic"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
)

// Tracker holds the current connection state. The zero value is
// Disconnected.
type Tracker struct {
	state     atomic.Int32
	changedAt atomic.Int64
	onChange  func(from, to domain.ConnState)
}

// New returns a tracker in the given state. onChange, if non-nil, runs on
// every transition.
func New(initial domain.ConnState, onChange func(from, to domain.ConnState)) *Tracker {
	t := &Tracker{onChange: onChange}
	t.state.Store(int32(initial))
	t.changedAt.Store(time.Now().UnixNano())
	return t
}

// State returns the current state.
func (t *Tracker) State() domain.ConnState {
	return domain.ConnState(t.state.Load())
}

// Set moves to s.
func (t *Tracker) Set(s domain.ConnState) {
	prev := domain.ConnState(t.state.Swap(int32(s)))
	if prev == s {
		return
	}
	t.changedAt.Store(time.Now().UnixNano())
	if t.onChange != nil {
		t.onChange(prev, s)
	}
}

// Since returns when the state last changed.
func (t *Tracker) Since() time.Time {
	return time.Unix(0, t.changedAt.Load())
}

// Check returns *domain.ErrUnavailable unless the state is Connected.
func Check(r interface{ State() domain.ConnState }) error {
	if s := r.State(); s != domain.Connected {
		return &domain.ErrUnavailable{State: s}
	}
	return nil
}
