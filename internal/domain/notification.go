package domain

import "time"

// Notification is a message targeted at one user.
type Notification struct {
	Meta    `bson:",inline"`
	User    string     `bson:"user" json:"user"`
	Title   string     `bson:"title" json:"title" validate:"required"`
	Message string     `bson:"message" json:"message" validate:"required"`
	Type    string     `bson:"type" json:"type" validate:"oneof=info success warning error task payment document"`
	Link    string     `bson:"link,omitempty" json:"link,omitempty"`
	IsRead  bool       `bson:"isRead" json:"isRead"`
	ReadAt  *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

func (n *Notification) AssignOwner(p Principal) { n.User = p.UserID }
func (n *Notification) KeepOwner(prev *Notification) { n.User = prev.User }

func (n *Notification) ApplyDefaults() {
	if n.Type == "" {
		n.Type = "info"
	}
}
