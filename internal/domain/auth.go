package domain

// Role distinguishes reporters from administrators.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Actor is the verified caller of a service operation. It is passed
// explicitly into every operation instead of being read from ambient state.
type Actor struct {
	ID          string
	Role        Role
	DisplayName string
}

// IsAdmin reports whether the actor may run privileged operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
