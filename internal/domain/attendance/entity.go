package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusPartial AttendanceStatus = "partial"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusPartial:
		return true
	}
	return false
}

// Attendance is the canonical record for one employee on one calendar day.
// (EmployeeID, Date) is unique.
type Attendance struct {
	ID            string
	EmployeeID    string
	CompanyID     string
	Date          time.Time
	CheckIn       *ClockTime
	CheckOut      *ClockTime
	WorkHours     decimal.Decimal
	OvertimeHours decimal.Decimal
	Status        AttendanceStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AttendanceMutation is the full set of fields an upsert writes.
type AttendanceMutation struct {
	CheckIn       *ClockTime
	CheckOut      *ClockTime
	WorkHours     decimal.Decimal
	OvertimeHours decimal.Decimal
	Status        AttendanceStatus
}

func (m AttendanceMutation) Validate() error {
	if m.WorkHours.IsNegative() || m.OvertimeHours.IsNegative() {
		return ErrNegativeHours
	}
	if !m.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
