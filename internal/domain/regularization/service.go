package regularization

import (
	"context"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
)

// RegularizationService is the submit and review workflow. Every state
// change commits together with its audit entry or not at all.
type RegularizationService interface {
	// Submit stores a pending request and its submitted entry, returning the new ID.
	Submit(ctx context.Context, actor user.Actor, req SubmitRequest) (string, error)

	// Review applies a reviewer decision to a pending request. Approval
	// also rewrites the attendance record for the request's day.
	Review(ctx context.Context, actor user.Actor, req ReviewRequest) (RegularizationResponse, error)

	Get(ctx context.Context, actor user.Actor, id string) (RegularizationResponse, error)
	ListPendingFor(ctx context.Context, actor user.Actor, employeeID string, date string) ([]RegularizationResponse, error)
	ListAuditForRequest(ctx context.Context, actor user.Actor, id string) ([]audit.AuditLogResponse, error)
	List(ctx context.Context, actor user.Actor, filter RegularizationFilter) (ListRegularizationResponse, error)
	GetAttendance(ctx context.Context, actor user.Actor, employeeID string, date string) (attendance.AttendanceResponse, error)
}

// PermissionGate answers whether an actor holds a capability. It must not
// have side effects.
type PermissionGate interface {
	HasCapability(ctx context.Context, actor user.Actor, permission user.Permission) bool
}
