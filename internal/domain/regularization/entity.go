package regularization

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
)

type RequestType string

const (
	RequestTypeCheckIn  RequestType = "check_in"
	RequestTypeCheckOut RequestType = "check_out"
	RequestTypeFullDay  RequestType = "full_day"
)

func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeCheckIn, RequestTypeCheckOut, RequestTypeFullDay:
		return true
	}
	return false
}

type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusMoreInfoRequired Status = "more_info_required"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusMoreInfoRequired:
		return true
	}
	return false
}

// IsReviewOutcome reports whether s is a status a reviewer may move a
// pending request to. All outcomes are terminal.
func (s Status) IsReviewOutcome() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusMoreInfoRequired
}

// AuditAction is the audit action recorded when a request enters s.
func (s Status) AuditAction() audit.Action {
	switch s {
	case StatusPending:
		return audit.ActionSubmitted
	case StatusApproved:
		return audit.ActionApproved
	case StatusRejected:
		return audit.ActionRejected
	case StatusMoreInfoRequired:
		return audit.ActionMoreInfoRequested
	}
	return ""
}

// StatusFromAuditAction is the inverse of Status.AuditAction.
func StatusFromAuditAction(a audit.Action) (Status, bool) {
	switch a {
	case audit.ActionSubmitted:
		return StatusPending, true
	case audit.ActionApproved:
		return StatusApproved, true
	case audit.ActionRejected:
		return StatusRejected, true
	case audit.ActionMoreInfoRequested:
		return StatusMoreInfoRequired, true
	}
	return "", false
}

// Evidence references a supporting attachment stored elsewhere.
type Evidence struct {
	URL         string `json:"url"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Value implements driver.Valuer for database storage
func (e Evidence) Value() (driver.Value, error) {
	if e.URL == "" {
		return nil, nil
	}
	return json.Marshal(e)
}

// EncodeEvidence returns the stored JSON form of e, or nil when there is none.
func EncodeEvidence(e *Evidence) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	v, err := e.Value()
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]byte), nil
}

// ParseEvidence decodes a stored evidence column; empty input yields nil.
func ParseEvidence(raw []byte) (*Evidence, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var e Evidence
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to decode evidence: %w", err)
	}
	return &e, nil
}

// RegularizationRequest is an employee's correction of one day's attendance.
type RegularizationRequest struct {
	ID             string
	EmployeeID     string
	CompanyID      string
	AttendanceDate time.Time
	RequestType    RequestType

	// What the system recorded, kept for audit comparison
	CurrentCheckIn  *attendance.ClockTime
	CurrentCheckOut *attendance.ClockTime

	// What the employee asserts is correct
	RequestedCheckIn  *attendance.ClockTime
	RequestedCheckOut *attendance.ClockTime

	Reason   string
	Evidence *Evidence
	Status   Status

	// Unset while pending, never cleared afterwards
	ReviewedBy  *string
	ReviewedAt  *time.Time
	ReviewNotes *string

	SubmittedAt time.Time
}

// Validate enforces the invariants every stored request satisfies.
func (r RegularizationRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id is required",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if !r.RequestType.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "request_type",
			Message: "request_type must be one of: check_in, check_out, full_day",
		})
	}

	if r.AttendanceDate.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_date",
			Message: "attendance_date is required",
		})
	} else if validator.IsFutureDate(r.AttendanceDate, now) {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_date",
			Message: "attendance_date must not be in the future",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
