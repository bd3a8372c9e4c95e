package domain

import "time"

// User is an account holder. PasswordHash and the reset fields are stored
// but never serialized to JSON.
type User struct {
	Meta                `bson:",inline"`
	FullName            string          `bson:"fullName" json:"fullName" validate:"required"`
	Email               string          `bson:"email" json:"email" validate:"required,email"`
	PasswordHash        string          `bson:"password" json:"-"`
	Phone               string          `bson:"phone" json:"phone" validate:"required"`
	Company             string          `bson:"company" json:"company" validate:"required"`
	Role                Role            `bson:"role" json:"role" validate:"required,role"`
	Avatar              string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsActive            bool            `bson:"isActive" json:"isActive"`
	LastLogin           *time.Time      `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	Preferences         UserPreferences `bson:"preferences" json:"preferences"`
	ResetPasswordToken  string          `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire *time.Time      `bson:"resetPasswordExpire,omitempty" json:"-"`
}

// UserPreferences holds notification and theme settings.
type UserPreferences struct {
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
	Theme         string                  `bson:"theme" json:"theme" validate:"oneof=light dark auto"`
}

// NotificationPreferences toggles delivery channels.
type NotificationPreferences struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

// Principal returns the caller identity derived from the user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Role: u.Role, Email: u.Email, FullName: u.FullName}
}

// The user record is its own owner: scope is applied on _id.
func (u *User) AssignOwner(Principal) {}

// KeepOwner pins credentials and reset state, which change only through
// the auth flows.
func (u *User) KeepOwner(prev *User) {
	u.PasswordHash = prev.PasswordHash
	u.ResetPasswordToken = prev.ResetPasswordToken
	u.ResetPasswordExpire = prev.ResetPasswordExpire
	u.LastLogin = prev.LastLogin
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleAgent
	}
	if u.Preferences.Theme == "" {
		u.Preferences.Theme = "dark"
	}
}

// NewUserPreferences returns the defaults for a new account.
func NewUserPreferences() UserPreferences {
	return UserPreferences{
		Notifications: NotificationPreferences{Email: true, Push: true},
		Theme:         "dark",
	}
}
