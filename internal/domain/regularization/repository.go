package regularization

import (
	"context"
	"time"
)

// RegularizationRepository defines data access methods for regularization requests.
// All methods include companyID parameter to prevent cross-company data access attacks.
type RegularizationRepository interface {
	// Create inserts req with status pending and returns it with ID and SubmittedAt set.
	// A second pending request for the same employee and date fails with ErrRequestAlreadyPending.
	Create(ctx context.Context, req RegularizationRequest) (RegularizationRequest, error)

	// TransitionStatus moves the request from `from` to `to` only if its stored
	// status still equals `from`. Otherwise it returns ErrRequestAlreadyReviewed,
	// or ErrNotFound when no such request exists for the company.
	TransitionStatus(ctx context.Context, id string, companyID string, from Status, to Status, reviewerID string, notes *string, reviewedAt time.Time) (RegularizationRequest, error)

	// GetByID retrieves a request by ID with company isolation
	GetByID(ctx context.Context, id string, companyID string) (RegularizationRequest, error)

	// ListPendingFor returns pending requests for the employee on date.
	ListPendingFor(ctx context.Context, employeeID string, companyID string, date time.Time) ([]RegularizationRequest, error)

	// List retrieves requests with filters and pagination
	List(ctx context.Context, filter RegularizationFilter, companyID string) ([]RegularizationRequest, int64, error)
}
