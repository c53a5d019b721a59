package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", validator.ValidationErrors{{Field: "reason", Message: "reason is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid token", user.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no company", fmt.Errorf("%w: %w", regularization.ErrForbidden, user.ErrCompanyIDRequired), http.StatusForbidden, "FORBIDDEN"},
		{"forbidden", regularization.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"request not found", regularization.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"attendance not found", attendance.ErrAttendanceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already pending", regularization.ErrRequestAlreadyPending, http.StatusConflict, "CONFLICT"},
		{"already reviewed", fmt.Errorf("review: %w", regularization.ErrRequestAlreadyReviewed), http.StatusConflict, "CONFLICT"},
		{"storage", database.Unavailable("insert request", errors.New("connection reset")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"deadline", database.Unavailable("insert request", context.DeadlineExceeded), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"canceled", fmt.Errorf("list requests: %w", context.Canceled), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}
