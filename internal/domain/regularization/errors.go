package regularization

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
)

// Regularization domain errors
var (
	ErrForbidden = errors.New("insufficient permissions for this regularization action")
	ErrNotFound  = errors.New("regularization request not found")

	// ErrConflict is the base of every "someone else already acted" failure.
	// After a retry it means no action is needed.
	ErrConflict               = errors.New("regularization conflict")
	ErrRequestAlreadyPending  = fmt.Errorf("%w: a request for this date is already pending", ErrConflict)
	ErrRequestAlreadyReviewed = fmt.Errorf("%w: request already reviewed", ErrConflict)

	ErrStorageUnavailable = database.ErrStorageUnavailable
)
