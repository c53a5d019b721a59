package user

import "context"

type Permission string

const (
	PermissionRegularizationSubmit  Permission = "regularization.submit"
	PermissionRegularizationApprove Permission = "regularization.approve"
	PermissionRegularizationView    Permission = "regularization.view"
	// ViewOwn lets an employee read the requests they submitted themselves.
	PermissionRegularizationViewOwn Permission = "regularization.view_own"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionRegularizationSubmit,
		PermissionRegularizationApprove,
		PermissionRegularizationView,
		PermissionRegularizationViewOwn,
	},
	RoleManager: {
		// Manager can review and see the whole company's requests
		PermissionRegularizationSubmit,
		PermissionRegularizationApprove,
		PermissionRegularizationView,
		PermissionRegularizationViewOwn,
	},
	RoleEmployee: {
		PermissionRegularizationSubmit,
		PermissionRegularizationViewOwn,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

// RoleGate answers capability checks from RolePermissions.
type RoleGate struct{}

func NewRoleGate() *RoleGate {
	return &RoleGate{}
}

func (g *RoleGate) HasCapability(ctx context.Context, actor Actor, permission Permission) bool {
	return HasPermission(actor.Role, permission)
}
