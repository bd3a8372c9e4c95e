// Package policy holds the authorization tables: which roles may perform an
// action on a resource type (role gate), and whose records a caller may see
// (ownership scope). Both are static and checked by single functions.
package policy

import "github.com/elevare/elevare-backend-go/internal/domain"

// Resource is an entity type guarded by the policy.
type Resource string

const (
	Lead         Resource = "lead"
	Call         Resource = "call"
	Task         Resource = "task"
	Mood         Resource = "mood"
	Property     Resource = "property"
	Payment      Resource = "payment"
	Document     Resource = "document"
	Notification Resource = "notification"
	User         Resource = "user"
	System       Resource = "system"
)

// Action is an operation on a resource.
type Action string

const (
	List     Action = "list"
	Read     Action = "read"
	Create   Action = "create"
	Update   Action = "update"
	Delete   Action = "delete"
	Feedback Action = "feedback"
	Resolve  Action = "resolve"

	// anyAction keys a rule that applies to every action of a resource.
	anyAction Action = "*"
)

var (
	agent           = domain.RoleAgent
	manager         = domain.RoleManager
	landlord        = domain.RoleLandlord
	propertyManager = domain.RolePropertyManager
	ceo             = domain.RoleCEO
	admin           = domain.RoleAdmin
	coach           = domain.RoleCoach
)

// ============================================================
// Role gate
// ============================================================

// roleGate maps (resource, action) to the permitted roles. Pairs without an
// entry are open to every authenticated role.
var roleGate = map[Resource]map[Action][]domain.Role{
	Lead: {
		Create: {agent, manager, admin},
		Update: {agent, manager, admin},
		Delete: {manager, admin},
	},
	Call: {
		Create:   {agent, manager, admin},
		Delete:   {manager, admin},
		Feedback: {manager, coach, admin},
	},
	Property: {
		Create: {landlord, propertyManager, admin},
		Update: {landlord, propertyManager, admin},
		Delete: {landlord, admin},
	},
	Payment: {
		Create: {landlord, propertyManager, admin},
		Update: {landlord, propertyManager, admin},
		Delete: {admin},
	},
	Task: {
		Create: {manager, admin},
		Delete: {manager, admin},
	},
	User: {
		List:   {admin, manager, ceo},
		Delete: {admin},
	},
	System: {
		Read: {admin},
	},
}

// Allow reports whether role may perform action on resource.
func Allow(role domain.Role, res Resource, act Action) bool {
	roles, gated := roleGate[res][act]
	if !gated {
		return true
	}
	return contains(roles, role)
}

// Authorize returns *domain.ErrForbidden when the role gate denies.
func Authorize(p domain.Principal, res Resource, act Action) error {
	if Allow(p.Role, res, act) {
		return nil
	}
	return &domain.ErrForbidden{Role: p.Role, Resource: string(res), Action: string(act)}
}

// ============================================================
// Ownership scope
// ============================================================

type ownership struct {
	fields []string
	// cross lists, per action, the roles that see every record.
	cross map[Action][]domain.Role
}

var scopes = map[Resource]ownership{
	Lead: {
		fields: []string{"agent"},
		cross:  map[Action][]domain.Role{anyAction: {manager, admin}, List: {ceo}, Read: {ceo}},
	},
	Call: {
		fields: []string{"agent"},
		cross:  map[Action][]domain.Role{anyAction: {manager, admin}, List: {ceo}, Read: {ceo}, Feedback: {coach}},
	},
	Task: {
		fields: []string{"agent", "assignedTo"},
		cross:  map[Action][]domain.Role{anyAction: {manager, admin}},
	},
	Mood: {
		fields: []string{"agent"},
		cross:  map[Action][]domain.Role{List: {manager, admin}, Read: {manager, admin}},
	},
	Property: {
		fields: []string{"landlord"},
		cross:  map[Action][]domain.Role{anyAction: {propertyManager, admin}, List: {ceo}, Read: {ceo}},
	},
	Payment: {
		fields: []string{"landlord"},
		cross:  map[Action][]domain.Role{anyAction: {propertyManager, admin}, List: {ceo}, Read: {ceo}},
	},
	Document: {
		fields: []string{"owner"},
		cross:  map[Action][]domain.Role{anyAction: {admin}},
	},
	Notification: {
		fields: []string{"user"},
	},
	User: {
		fields: []string{"_id"},
		cross:  map[Action][]domain.Role{anyAction: {admin}, List: {manager, ceo}, Read: {manager, ceo}},
	},
}

// CrossesScope reports whether role sees every record of res for act.
func CrossesScope(role domain.Role, res Resource, act Action) bool {
	o := scopes[res]
	return contains(o.cross[anyAction], role) || contains(o.cross[act], role)
}

// ScopeFor returns the ownership scope the repository must apply for p
// performing act on res.
func ScopeFor(p domain.Principal, res Resource, act Action) domain.Scope {
	if CrossesScope(p.Role, res, act) {
		return domain.GlobalScope()
	}
	return domain.OwnedBy(p.UserID, OwnerFields(res)...)
}

// OwnerFields returns the stored field names that identify a record's owner.
func OwnerFields(res Resource) []string {
	return scopes[res].fields
}

func contains(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
