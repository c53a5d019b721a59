package regularization

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
)

type RegularizationServiceImpl struct {
	tx database.Transactor
	regularization.RegularizationRepository
	attendance.AttendanceRepository
	audit.AuditRepository
	gate       regularization.PermissionGate
	reconciler *Reconciler
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*RegularizationServiceImpl)

// WithClock replaces the wall clock used for submission and review times.
func WithClock(now func() time.Time) Option {
	return func(s *RegularizationServiceImpl) {
		s.now = now
	}
}

// WithLogger sets the logger for committed and aborted transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *RegularizationServiceImpl) {
		s.logger = logger
	}
}

// Submit implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Submit(ctx context.Context, actor user.Actor, req regularization.SubmitRequest) (string, error) {
	if err := s.authorize(ctx, actor, user.PermissionRegularizationSubmit); err != nil {
		return "", err
	}

	if req.CompanyID == "" {
		req.CompanyID = actor.CompanyID
	}
	if req.EmployeeID == "" && actor.EmployeeID != nil {
		req.EmployeeID = *actor.EmployeeID
	}
	if req.CompanyID != actor.CompanyID {
		return "", regularization.ErrForbidden
	}

	// Filing on behalf of someone else needs reviewer rights.
	if req.EmployeeID != "" && !actor.IsEmployee(req.EmployeeID) {
		if err := s.authorize(ctx, actor, user.PermissionRegularizationApprove); err != nil {
			return "", err
		}
	}

	now := s.now()
	if err := req.Validate(now); err != nil {
		return "", err
	}

	newRequest, err := req.ToEntity()
	if err != nil {
		return "", err
	}
	newRequest.SubmittedAt = now.UTC()

	var created regularization.RegularizationRequest
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		pending, err := s.RegularizationRepository.ListPendingFor(txCtx, newRequest.EmployeeID, newRequest.CompanyID, newRequest.AttendanceDate)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return regularization.ErrRequestAlreadyPending
		}

		created, err = s.RegularizationRepository.Create(txCtx, newRequest)
		if err != nil {
			return err
		}

		_, err = s.AuditRepository.Append(txCtx, audit.AuditLog{
			RequestID: created.ID,
			CompanyID: created.CompanyID,
			Action:    audit.ActionSubmitted,
			ActorID:   actor.UserID,
			ActorType: audit.ActorTypeEmployee,
			IPAddress: actor.IPAddress,
			UserAgent: actor.UserAgent,
			Reason:    created.Reason,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to record submission: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "regularization submit aborted",
			"employee_id", newRequest.EmployeeID,
			"company_id", newRequest.CompanyID,
			"attendance_date", req.AttendanceDate,
			"error", err,
		)
		return "", err
	}

	s.logger.InfoContext(ctx, "regularization submitted",
		"request_id", created.ID,
		"employee_id", created.EmployeeID,
		"company_id", created.CompanyID,
		"request_type", string(created.RequestType),
	)
	return created.ID, nil
}

// Review implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Review(ctx context.Context, actor user.Actor, req regularization.ReviewRequest) (regularization.RegularizationResponse, error) {
	if err := s.authorize(ctx, actor, user.PermissionRegularizationApprove); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	req.CompanyID = actor.CompanyID
	req.ReviewerID = actor.UserID
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	outcome := req.Outcome()
	now := s.now()

	var reviewed regularization.RegularizationRequest
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		reviewed, err = s.RegularizationRepository.TransitionStatus(txCtx,
			req.RequestID, req.CompanyID, regularization.StatusPending, outcome, req.ReviewerID, req.Notes, now)
		if err != nil {
			return err
		}

		if outcome == regularization.StatusApproved {
			mutation, err := s.reconciler.Reconcile(reviewed)
			if err != nil {
				return err
			}
			_, err = s.AttendanceRepository.Upsert(txCtx, reviewed.EmployeeID, reviewed.CompanyID, reviewed.AttendanceDate, mutation)
			if err != nil {
				return fmt.Errorf("failed to apply attendance correction: %w", err)
			}
		}

		reason := ""
		if req.Notes != nil {
			reason = *req.Notes
		}
		_, err = s.AuditRepository.Append(txCtx, audit.AuditLog{
			RequestID: reviewed.ID,
			CompanyID: reviewed.CompanyID,
			Action:    outcome.AuditAction(),
			ActorID:   req.ReviewerID,
			ActorType: audit.ActorTypeReviewer,
			IPAddress: actor.IPAddress,
			UserAgent: actor.UserAgent,
			Reason:    reason,
			CreatedAt: notBefore(now, reviewed.SubmittedAt),
		})
		if err != nil {
			return fmt.Errorf("failed to record review: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "regularization review aborted",
			"request_id", req.RequestID,
			"company_id", req.CompanyID,
			"reviewer_id", req.ReviewerID,
			"action", string(outcome),
			"error", err,
		)
		return regularization.RegularizationResponse{}, err
	}

	s.logger.InfoContext(ctx, "regularization reviewed",
		"request_id", reviewed.ID,
		"company_id", reviewed.CompanyID,
		"reviewer_id", req.ReviewerID,
		"status", string(reviewed.Status),
	)
	return regularization.ToResponse(reviewed), nil
}

// Get implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Get(ctx context.Context, actor user.Actor, id string) (regularization.RegularizationResponse, error) {
	req, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	return regularization.ToResponse(req), nil
}

// ListPendingFor implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) ListPendingFor(ctx context.Context, actor user.Actor, employeeID string, date string) ([]regularization.RegularizationResponse, error) {
	attendanceDate, err := parseEmployeeDay(employeeID, date)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	pending, err := s.RegularizationRepository.ListPendingFor(ctx, employeeID, actor.CompanyID, attendanceDate)
	if err != nil {
		return nil, err
	}

	responses := make([]regularization.RegularizationResponse, 0, len(pending))
	for _, req := range pending {
		responses = append(responses, regularization.ToResponse(req))
	}
	return responses, nil
}

// ListAuditForRequest implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) ListAuditForRequest(ctx context.Context, actor user.Actor, id string) ([]audit.AuditLogResponse, error) {
	req, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.AuditRepository.ListForRequest(ctx, req.ID, req.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]audit.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, audit.ToResponse(entry))
	}
	return responses, nil
}

// List implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) List(ctx context.Context, actor user.Actor, filter regularization.RegularizationFilter) (regularization.ListRegularizationResponse, error) {
	if err := filter.Validate(); err != nil {
		return regularization.ListRegularizationResponse{}, err
	}
	if actor.CompanyID == "" {
		return regularization.ListRegularizationResponse{}, fmt.Errorf("%w: %w", regularization.ErrForbidden, user.ErrCompanyIDRequired)
	}

	// Without company-wide view rights the listing narrows to the actor's own requests.
	if !s.can(ctx, actor, user.PermissionRegularizationView) {
		if actor.EmployeeID == nil || !s.can(ctx, actor, user.PermissionRegularizationViewOwn) {
			return regularization.ListRegularizationResponse{}, regularization.ErrForbidden
		}
		own := *actor.EmployeeID
		filter.EmployeeID = &own
	}

	requests, total, err := s.RegularizationRepository.List(ctx, filter, actor.CompanyID)
	if err != nil {
		return regularization.ListRegularizationResponse{}, err
	}

	responses := make([]regularization.RegularizationResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, regularization.ToResponse(req))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 || len(responses) == 0 {
		showing = fmt.Sprintf("0 of %d", total)
	}

	return regularization.ListRegularizationResponse{
		TotalCount:      total,
		Page:            filter.Page,
		Limit:           filter.Limit,
		TotalPages:      totalPages,
		Showing:         showing,
		Regularizations: responses,
	}, nil
}

// GetAttendance implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) GetAttendance(ctx context.Context, actor user.Actor, employeeID string, date string) (attendance.AttendanceResponse, error) {
	attendanceDate, err := parseEmployeeDay(employeeID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := s.authorizeView(ctx, actor, employeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, actor.CompanyID, attendanceDate)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if att == nil {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}
	return attendance.ToResponse(*att), nil
}

// getVisible loads a request within the actor's company and checks the actor may read it.
func (s *RegularizationServiceImpl) getVisible(ctx context.Context, actor user.Actor, id string) (regularization.RegularizationRequest, error) {
	if validator.IsEmpty(id) {
		return regularization.RegularizationRequest{}, validator.ValidationErrors{{Field: "id", Message: "request id is required"}}
	}
	if !validator.IsValidUUID(id) {
		return regularization.RegularizationRequest{}, validator.ValidationErrors{{Field: "id", Message: "request id must be a valid UUID"}}
	}
	if actor.CompanyID == "" {
		return regularization.RegularizationRequest{}, fmt.Errorf("%w: %w", regularization.ErrForbidden, user.ErrCompanyIDRequired)
	}
	if !s.can(ctx, actor, user.PermissionRegularizationView) && !s.can(ctx, actor, user.PermissionRegularizationViewOwn) {
		return regularization.RegularizationRequest{}, regularization.ErrForbidden
	}

	req, err := s.RegularizationRepository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return regularization.RegularizationRequest{}, err
	}
	if err := s.authorizeView(ctx, actor, req.EmployeeID); err != nil {
		return regularization.RegularizationRequest{}, err
	}
	return req, nil
}

// authorize fails with ErrForbidden unless the actor is privileged or holds
// permission. The actor must always belong to a company.
func (s *RegularizationServiceImpl) authorize(ctx context.Context, actor user.Actor, permission user.Permission) error {
	if actor.CompanyID == "" {
		return fmt.Errorf("%w: %w", regularization.ErrForbidden, user.ErrCompanyIDRequired)
	}
	if !s.can(ctx, actor, permission) {
		return fmt.Errorf("%w: %s", regularization.ErrForbidden, permission)
	}
	return nil
}

// authorizeView allows company-wide readers, and employees reading their own records.
func (s *RegularizationServiceImpl) authorizeView(ctx context.Context, actor user.Actor, employeeID string) error {
	if actor.CompanyID == "" {
		return fmt.Errorf("%w: %w", regularization.ErrForbidden, user.ErrCompanyIDRequired)
	}
	if s.can(ctx, actor, user.PermissionRegularizationView) {
		return nil
	}
	if actor.IsEmployee(employeeID) && s.can(ctx, actor, user.PermissionRegularizationViewOwn) {
		return nil
	}
	return regularization.ErrForbidden
}

// can consults the gate unless the actor is privileged, which skips it entirely.
func (s *RegularizationServiceImpl) can(ctx context.Context, actor user.Actor, permission user.Permission) bool {
	if actor.IsPrivileged() {
		return true
	}
	return s.gate.HasCapability(ctx, actor, permission)
}

// notBefore returns t, or floor when the clock has stepped back past it.
// Audit entries are ordered by time, so a review must never sort before its submission.
func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

func parseEmployeeDay(employeeID string, date string) (time.Time, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	attendanceDate, valid := validator.IsValidDate(date)
	if !valid {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return time.Time{}, errs
	}
	return attendanceDate, nil
}

func NewRegularizationService(
	tx database.Transactor,
	regularizationRepo regularization.RegularizationRepository,
	attendanceRepo attendance.AttendanceRepository,
	auditRepo audit.AuditRepository,
	gate regularization.PermissionGate,
	reconciler *Reconciler,
	opts ...Option,
) regularization.RegularizationService {
	s := &RegularizationServiceImpl{
		tx:                       tx,
		RegularizationRepository: regularizationRepo,
		AttendanceRepository:     attendanceRepo,
		AuditRepository:          auditRepo,
		gate:                     gate,
		reconciler:               reconciler,
		logger:                   slog.Default(),
		now:                      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reconciler == nil {
		s.reconciler = NewReconciler(DefaultStandardWorkHours)
	}
	return s
}
