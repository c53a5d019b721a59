package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company ID is required")

	// Regularization domain errors
	case errors.Is(err, regularization.ErrForbidden):
		Forbidden(w, "Insufficient permissions for this regularization action")
	case errors.Is(err, regularization.ErrNotFound):
		NotFound(w, "Regularization request not found")
	case errors.Is(err, regularization.ErrRequestAlreadyPending):
		Conflict(w, "A regularization request for this date is already pending")
	case errors.Is(err, regularization.ErrRequestAlreadyReviewed):
		Conflict(w, "Regularization request already reviewed")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance not found")

	// Storage
	case errors.Is(err, regularization.ErrStorageUnavailable):
		ServiceUnavailable(w, "Storage is temporarily unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		ServiceUnavailable(w, "Request timed out before it completed, please retry")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
