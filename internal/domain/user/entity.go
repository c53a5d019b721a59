package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can review regularization requests
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Actor is the authenticated caller of a workflow operation, including the
// request metadata the audit trail records.
type Actor struct {
	UserID     string
	EmployeeID *string
	CompanyID  string
	Role       Role
	// IsAdmin marks the platform super-admin. It bypasses capability checks.
	IsAdmin   bool
	IPAddress string
	UserAgent string
}

// IsPrivileged reports whether the actor skips the permission gate entirely.
func (a Actor) IsPrivileged() bool {
	return a.IsAdmin
}

// IsEmployee reports whether the actor is the given employee.
func (a Actor) IsEmployee(employeeID string) bool {
	return a.EmployeeID != nil && *a.EmployeeID == employeeID
}
