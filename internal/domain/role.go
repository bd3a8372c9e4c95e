package domain

// Role is a user's role within the organization.
type Role string

const (
	RoleAgent           Role = "agent"
	RoleManager         Role = "manager"
	RoleLandlord        Role = "landlord"
	RolePropertyManager Role = "property-manager"
	RoleCEO             Role = "ceo"
	RoleAdmin           Role = "admin"

	// RoleCoach may review calls. It is recognized by the policy table but
	// is not assignable through registration or user updates.
	RoleCoach Role = "coach"
)

// AssignableRoles are the roles a user record may carry.
var AssignableRoles = []Role{RoleAgent, RoleManager, RoleLandlord, RolePropertyManager, RoleCEO, RoleAdmin}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Role     Role
	Email    string
	FullName string
}
