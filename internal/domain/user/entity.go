package user

import "context"

type Role string

const (
	RoleStaff      Role = "STAFF"       // Punches attendance, files corrections
	RoleManager    Role = "MANAGER"     // Reviews attendance and corrections
	RoleAdmin      Role = "ADMIN"       // Company owner
	RoleSuperAdmin Role = "SUPER_ADMIN" // Platform owner acting inside a company
)

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsOwner reports whether the role holds company owner rights.
func (r Role) IsOwner() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsManager checks if role is manager or owner
func (r Role) IsManager() bool {
	return r == RoleManager || r.IsOwner()
}

// Actor is the authenticated identity of a request, resolved from the access
// token by the HTTP layer.
type Actor struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       Role
}

// CanApprove checks if actor can review attendance, corrections and salaries
func (a Actor) CanApprove() bool {
	return a.Role.IsManager()
}

// CanManageMoney checks if actor can delete cashbook transactions
func (a Actor) CanManageMoney() bool {
	return a.Role.IsOwner()
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns ErrActorMissing when no identity is attached or it
// is not scoped to a company.
func ActorFromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || a.UserID == "" {
		return Actor{}, ErrActorMissing
	}
	if a.CompanyID == "" {
		return Actor{}, ErrCompanyIDRequired
	}
	return a, nil
}
