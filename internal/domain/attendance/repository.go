package attendance

import (
	"context"
	"time"
)

// AttendanceRepository stores one record per (employee, date).
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Upsert writes every mutation field for the key, creating the row if absent.
	// Applying the same mutation twice leaves the same stored state.
	Upsert(ctx context.Context, employeeID string, companyID string, date time.Time, mutation AttendanceMutation) (Attendance, error)

	// GetByEmployeeAndDate returns nil, nil when no record exists yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, companyID string, date time.Time) (*Attendance, error)
}
