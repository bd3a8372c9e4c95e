package domain

import "time"

// Document is a file reference owned by a user.
type Document struct {
	Meta           `bson:",inline"`
	Owner          string     `bson:"owner" json:"owner"`
	Property       string     `bson:"property,omitempty" json:"property,omitempty"`
	Title          string     `bson:"title" json:"title" validate:"required"`
	Type           string     `bson:"type" json:"type" validate:"required,oneof=lease-agreement id ownership-document tax-declaration insurance inspection-report maintenance-record other"`
	FileURL        string     `bson:"fileUrl" json:"fileUrl" validate:"required"`
	FileName       string     `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileSize       int64      `bson:"fileSize,omitempty" json:"fileSize,omitempty" validate:"gte=0"`
	MimeType       string     `bson:"mimeType,omitempty" json:"mimeType,omitempty"`
	ExpiryDate     *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	AlertBefore    *int       `bson:"alertBefore" json:"alertBefore" validate:"omitempty,gte=0"`
	Tags           []string   `bson:"tags" json:"tags"`
	IsConfidential bool       `bson:"isConfidential" json:"isConfidential"`
}

func (d *Document) AssignOwner(p Principal) { d.Owner = p.UserID }
func (d *Document) KeepOwner(prev *Document) { d.Owner = prev.Owner }

// DefaultAlertBefore is the expiry alert lead time in days.
const DefaultAlertBefore = 30

// ApplyDefaults sets the expiry alert when absent and an empty tag list.
// An explicit zero disables the alert and is kept.
func (d *Document) ApplyDefaults() {
	if d.AlertBefore == nil {
		days := DefaultAlertBefore
		d.AlertBefore = &days
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}
