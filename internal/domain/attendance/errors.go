package attendance

import "errors"

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrNegativeHours      = errors.New("work and overtime hours must not be negative")
	ErrInvalidStatus      = errors.New("invalid attendance status")
)
