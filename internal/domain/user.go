package domain

// UserRole enumerates caller roles.
type UserRole string

const (
	UserRoleRequester UserRole = "REQUESTER"
	UserRoleAgent     UserRole = "AGENT"
	UserRoleManager   UserRole = "MANAGER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleRequester || r == UserRoleAgent || r == UserRoleManager
}

// IsStaff reports whether the role belongs to support staff.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAgent || r == UserRoleManager
}

// Caller identifies who is performing an operation.
type Caller struct {
	UserID string
	Role   UserRole
}
