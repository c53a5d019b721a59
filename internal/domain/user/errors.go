package user

import "errors"

var (
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCompanyIDRequired       = errors.New("company ID is required")
	ErrEmployeeIDRequired      = errors.New("employee ID is required")
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrUserIDMissing = errors.New("user_id missing from token")
)
