package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================
// Record metadata shared by every entity
// ============================================================

// Meta holds the server-assigned fields of a record.
type Meta struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Base exposes the metadata of an embedding entity.
func (m *Meta) Base() *Meta { return m }

// Stamp assigns a fresh ID and creation time.
func (m *Meta) Stamp(now time.Time) {
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Restore copies identity and creation time from a stored record and
// bumps the update time.
func (m *Meta) Restore(prev *Meta, now time.Time) {
	m.ID = prev.ID
	m.CreatedAt = prev.CreatedAt
	m.UpdatedAt = now
}

// ============================================================
// Ownership scope and list queries
// ============================================================

// Scope restricts a repository operation to records owned by one user.
// A record is in scope when any of Fields equals OwnerID. Global scope
// matches every record.
type Scope struct {
	Global  bool
	OwnerID string
	Fields  []string
}

// GlobalScope matches all records.
func GlobalScope() Scope { return Scope{Global: true} }

// OwnedBy scopes to records whose owner fields reference ownerID.
func OwnedBy(ownerID string, fields ...string) Scope {
	return Scope{OwnerID: ownerID, Fields: fields}
}

// Match is a set of equality conditions on stored field names.
// A nil value matches an absent or null field.
type Match map[string]any

// Query narrows and orders a list operation.
type Query struct {
	Match Match
	// After keeps records whose time field is strictly after the instant.
	After     *TimeBound
	SortField string
	SortAsc   bool
	Limit     int64
}

// TimeBound is a lower bound on a time-valued field.
type TimeBound struct {
	Field string
	Time  time.Time
}
