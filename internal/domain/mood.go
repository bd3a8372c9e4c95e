package domain

import "time"

// MoodEntry is an agent's self check-in.
type MoodEntry struct {
	Meta          `bson:",inline"`
	Agent         string           `bson:"agent" json:"agent"`
	EntryType     string           `bson:"entryType" json:"entryType" validate:"required,oneof=morning midday after-call end-of-day"`
	Date          time.Time        `bson:"date" json:"date"`
	Mood          *int             `bson:"mood,omitempty" json:"mood,omitempty" validate:"omitempty,min=1,max=10"`
	Energy        *int             `bson:"energy,omitempty" json:"energy,omitempty" validate:"omitempty,min=1,max=10"`
	Focus         *int             `bson:"focus,omitempty" json:"focus,omitempty" validate:"omitempty,min=1,max=10"`
	Confidence    *int             `bson:"confidence,omitempty" json:"confidence,omitempty" validate:"omitempty,min=1,max=5"`
	Empathy       *int             `bson:"empathy,omitempty" json:"empathy,omitempty" validate:"omitempty,min=1,max=5"`
	Satisfaction  *int             `bson:"satisfaction,omitempty" json:"satisfaction,omitempty" validate:"omitempty,min=1,max=5"`
	Intention     string           `bson:"intention,omitempty" json:"intention,omitempty"`
	Reflection    string           `bson:"reflection,omitempty" json:"reflection,omitempty"`
	AICorrelation *MoodCorrelation `bson:"aiCorrelation,omitempty" json:"aiCorrelation,omitempty"`
}

// MoodCorrelation is externally populated insight over mood history.
type MoodCorrelation struct {
	Insights        []string `bson:"insights" json:"insights"`
	Patterns        []string `bson:"patterns" json:"patterns"`
	Recommendations []string `bson:"recommendations" json:"recommendations"`
}

func (m *MoodEntry) AssignOwner(p Principal) { m.Agent = p.UserID }

func (m *MoodEntry) KeepOwner(prev *MoodEntry) {
	m.Agent = prev.Agent
	m.AICorrelation = prev.AICorrelation
}

func (m *MoodEntry) ApplyDefaults() {
	if m.Date.IsZero() {
		m.Date = time.Now().UTC().Truncate(time.Millisecond)
	}
}
