package regularization

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
)

// ========================================
// REGULARIZATION DTOs
// ========================================

type SubmitRequest struct {
	EmployeeID        string    `json:"employee_id"`
	CompanyID         string    `json:"-"`
	AttendanceDate    string    `json:"attendance_date"` // YYYY-MM-DD
	RequestType       string    `json:"request_type"`
	CurrentCheckIn    *string   `json:"current_check_in,omitempty"`    // HH:MM or HH:MM:SS
	CurrentCheckOut   *string   `json:"current_check_out,omitempty"`   // HH:MM or HH:MM:SS
	RequestedCheckIn  *string   `json:"requested_check_in,omitempty"`  // HH:MM or HH:MM:SS
	RequestedCheckOut *string   `json:"requested_check_out,omitempty"` // HH:MM or HH:MM:SS
	Reason            string    `json:"reason"`
	Evidence          *Evidence `json:"evidence,omitempty"`
}

// Validate checks field formats, then the stored-request invariants against now.
func (r *SubmitRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	if r.AttendanceDate == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_date",
			Message: "attendance_date is required",
		})
	} else if _, valid := validator.IsValidDate(r.AttendanceDate); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_date",
			Message: "attendance_date must be in YYYY-MM-DD format",
		})
	}

	clockFields := []struct {
		field string
		value *string
	}{
		{"current_check_in", r.CurrentCheckIn},
		{"current_check_out", r.CurrentCheckOut},
		{"requested_check_in", r.RequestedCheckIn},
		{"requested_check_out", r.RequestedCheckOut},
	}
	for _, f := range clockFields {
		if f.value != nil && *f.value != "" && !validator.IsValidClockTime(*f.value) {
			errs = append(errs, validator.ValidationError{
				Field:   f.field,
				Message: f.field + " must be in HH:MM or HH:MM:SS format",
			})
		}
	}

	if r.Evidence != nil && validator.IsEmpty(r.Evidence.URL) {
		errs = append(errs, validator.ValidationError{
			Field:   "evidence",
			Message: "evidence url is required when evidence is attached",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	req, err := r.ToEntity()
	if err != nil {
		return err
	}
	return req.Validate(now)
}

// ToEntity converts the DTO into a pending request. Call Validate first.
func (r *SubmitRequest) ToEntity() (RegularizationRequest, error) {
	var errs validator.ValidationErrors
	parse := func(field string, s *string) *attendance.ClockTime {
		c, err := attendance.ParseClockTimePtr(s)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: field, Message: err.Error()})
		}
		return c
	}

	date, _ := validator.IsValidDate(r.AttendanceDate)
	req := RegularizationRequest{
		EmployeeID:        strings.TrimSpace(r.EmployeeID),
		CompanyID:         strings.TrimSpace(r.CompanyID),
		AttendanceDate:    date,
		RequestType:       RequestType(strings.ToLower(r.RequestType)),
		CurrentCheckIn:    parse("current_check_in", r.CurrentCheckIn),
		CurrentCheckOut:   parse("current_check_out", r.CurrentCheckOut),
		RequestedCheckIn:  parse("requested_check_in", r.RequestedCheckIn),
		RequestedCheckOut: parse("requested_check_out", r.RequestedCheckOut),
		Reason:            strings.TrimSpace(r.Reason),
		Evidence:          r.Evidence,
		Status:            StatusPending,
	}

	if len(errs) > 0 {
		return RegularizationRequest{}, errs
	}
	return req, nil
}

type ReviewRequest struct {
	RequestID  string  `json:"-"`
	CompanyID  string  `json:"-"`
	ReviewerID string  `json:"-"`
	Action     string  `json:"action"` // approved, rejected, more_info_required
	Notes      *string `json:"notes,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "request id is required",
		})
	} else if !validator.IsValidUUID(r.RequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "request id must be a valid UUID",
		})
	}

	if validator.IsEmpty(r.ReviewerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "reviewer_id",
			Message: "reviewer_id is required",
		})
	}

	if !Status(strings.ToLower(r.Action)).IsReviewOutcome() {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be one of: approved, rejected, more_info_required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Outcome is the target status. Only meaningful after Validate.
func (r *ReviewRequest) Outcome() Status {
	return Status(strings.ToLower(r.Action))
}

type RegularizationFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // submitted_at, attendance_date, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *RegularizationFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !Status(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected, more_info_required",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"submitted_at", "attendance_date", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: submitted_at, attendance_date, status",
			})
		}
	} else {
		f.SortBy = "submitted_at" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RegularizationResponse struct {
	ID                string    `json:"id"`
	EmployeeID        string    `json:"employee_id"`
	CompanyID         string    `json:"company_id"`
	AttendanceDate    string    `json:"attendance_date"`
	RequestType       string    `json:"request_type"`
	CurrentCheckIn    *string   `json:"current_check_in,omitempty"`
	CurrentCheckOut   *string   `json:"current_check_out,omitempty"`
	RequestedCheckIn  *string   `json:"requested_check_in,omitempty"`
	RequestedCheckOut *string   `json:"requested_check_out,omitempty"`
	Reason            string    `json:"reason"`
	Evidence          *Evidence `json:"evidence,omitempty"`
	Status            string    `json:"status"`
	ReviewedBy        *string   `json:"reviewed_by,omitempty"`
	ReviewedAt        *string   `json:"reviewed_at,omitempty"`
	ReviewNotes       *string   `json:"review_notes,omitempty"`
	SubmittedAt       string    `json:"submitted_at"`
}

type ListRegularizationResponse struct {
	TotalCount      int64                    `json:"total_count"`
	Page            int                      `json:"page"`
	Limit           int                      `json:"limit"`
	TotalPages      int                      `json:"total_pages"`
	Showing         string                   `json:"showing"`
	Regularizations []RegularizationResponse `json:"regularizations"`
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

func ToResponse(req RegularizationRequest) RegularizationResponse {
	return RegularizationResponse{
		ID:                req.ID,
		EmployeeID:        req.EmployeeID,
		CompanyID:         req.CompanyID,
		AttendanceDate:    req.AttendanceDate.Format("2006-01-02"),
		RequestType:       string(req.RequestType),
		CurrentCheckIn:    attendance.ClockTimePtrToString(req.CurrentCheckIn),
		CurrentCheckOut:   attendance.ClockTimePtrToString(req.CurrentCheckOut),
		RequestedCheckIn:  attendance.ClockTimePtrToString(req.RequestedCheckIn),
		RequestedCheckOut: attendance.ClockTimePtrToString(req.RequestedCheckOut),
		Reason:            req.Reason,
		Evidence:          req.Evidence,
		Status:            string(req.Status),
		ReviewedBy:        req.ReviewedBy,
		ReviewedAt:        timePtrToString(req.ReviewedAt),
		ReviewNotes:       req.ReviewNotes,
		SubmittedAt:       req.SubmittedAt.Format("2006-01-02 15:04:05"),
	}
}
