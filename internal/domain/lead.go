package domain

import "time"

// Lead status values, in pipeline order.
const (
	LeadNew         = "new"
	LeadContacted   = "contacted"
	LeadQualified   = "qualified"
	LeadNegotiating = "negotiating"
	LeadWon         = "won"
	LeadLost        = "lost"
)

// Lead is a prospective client owned by one agent.
type Lead struct {
	Meta         `bson:",inline"`
	Agent        string          `bson:"agent" json:"agent"`
	ClientName   string          `bson:"clientName" json:"clientName" validate:"required"`
	Email        string          `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone        string          `bson:"phone" json:"phone" validate:"required"`
	Status       string          `bson:"status" json:"status" validate:"oneof=new contacted qualified negotiating won lost"`
	Source       string          `bson:"source" json:"source" validate:"oneof=website referral social-media walk-in cold-call other"`
	InterestedIn string          `bson:"interestedIn" json:"interestedIn" validate:"required,oneof=buying renting selling"`
	Budget       Budget          `bson:"budget" json:"budget"`
	Preferences  LeadPreferences `bson:"preferences" json:"preferences"`
	Notes        []string        `bson:"notes" json:"notes"`
	LastContact  *time.Time      `bson:"lastContact,omitempty" json:"lastContact,omitempty"`
	NextFollowUp *time.Time      `bson:"nextFollowUp,omitempty" json:"nextFollowUp,omitempty"`
	Priority     string          `bson:"priority" json:"priority" validate:"oneof=low medium high urgent"`
	VIPLead      bool            `bson:"vipLead" json:"vipLead"`
}

// Budget is a price range.
type Budget struct {
	Min      *float64 `bson:"min,omitempty" json:"min,omitempty" validate:"omitempty,gte=0"`
	Max      *float64 `bson:"max,omitempty" json:"max,omitempty" validate:"omitempty,gte=0"`
	Currency string   `bson:"currency" json:"currency"`
}

// LeadPreferences captures what the client is looking for.
type LeadPreferences struct {
	Location     []string `bson:"location,omitempty" json:"location,omitempty"`
	PropertyType []string `bson:"propertyType,omitempty" json:"propertyType,omitempty"`
	Bedrooms     *int     `bson:"bedrooms,omitempty" json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Timeline     string   `bson:"timeline,omitempty" json:"timeline,omitempty"`
}

func (l *Lead) AssignOwner(p Principal) { l.Agent = p.UserID }
func (l *Lead) KeepOwner(prev *Lead) { l.Agent = prev.Agent }

func (l *Lead) ApplyDefaults() {
	if l.Status == "" {
		l.Status = LeadNew
	}
	if l.Source == "" {
		l.Source = "other"
	}
	if l.Priority == "" {
		l.Priority = "medium"
	}
	if l.Budget.Currency == "" {
		l.Budget.Currency = "PHP"
	}
	if l.Notes == nil {
		l.Notes = []string{}
	}
}

// Validate checks cross-field rules not expressible in tags.
func (l *Lead) Validate() error {
	if l.Budget.Min != nil && l.Budget.Max != nil && *l.Budget.Min > *l.Budget.Max {
		return NewValidation("budget.min must not exceed budget.max")
	}
	return nil
}
