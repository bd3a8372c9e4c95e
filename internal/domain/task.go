package domain

import "time"

const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// Task is a unit of work created by a manager, optionally assigned to a user.
type Task struct {
	Meta        `bson:",inline"`
	Agent       string     `bson:"agent" json:"agent"`
	Type        string     `bson:"type" json:"type" validate:"required"`
	Title       string     `bson:"title" json:"title" validate:"required"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Status      string     `bson:"status" json:"status" validate:"oneof=pending in-progress completed cancelled"`
	Priority    string     `bson:"priority" json:"priority" validate:"oneof=low medium high urgent"`
	AssignedTo  string     `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Response    string     `bson:"response,omitempty" json:"response,omitempty"`
	ResolvedAt  *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

func (t *Task) AssignOwner(p Principal) { t.Agent = p.UserID }
func (t *Task) KeepOwner(prev *Task) { t.Agent = prev.Agent }

func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
}

// Resolve marks the task completed with the given response.
func (t *Task) Resolve(response string, now time.Time) {
	t.Status = TaskCompleted
	t.Response = response
	t.ResolvedAt = &now
}
