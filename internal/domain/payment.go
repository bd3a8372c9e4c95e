package domain

import "time"

// Payment is a charge on a property, collected by its landlord from a tenant.
type Payment struct {
	Meta     `bson:",inline"`
	Property string     `bson:"property,omitempty" json:"property,omitempty"`
	Landlord string     `bson:"landlord" json:"landlord"`
	Tenant   string     `bson:"tenant,omitempty" json:"tenant,omitempty"`
	Amount   float64    `bson:"amount" json:"amount" validate:"gte=0"`
	Currency string     `bson:"currency" json:"currency" validate:"len=3"`
	Type     string     `bson:"type" json:"type"`
	Status   string     `bson:"status" json:"status"`
	DueDate  *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	PaidDate *time.Time `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
}

func (p *Payment) AssignOwner(pr Principal) { p.Landlord = pr.UserID }
func (p *Payment) KeepOwner(prev *Payment) { p.Landlord = prev.Landlord }

func (p *Payment) ApplyDefaults() {
	if p.Currency == "" {
		p.Currency = "PHP"
	}
	if p.Type == "" {
		p.Type = "rent"
	}
	if p.Status == "" {
		p.Status = "pending"
	}
}
