package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const regularizationColumns = `
	id, employee_id, company_id, attendance_date, request_type,
	current_check_in::text, current_check_out::text,
	requested_check_in::text, requested_check_out::text,
	reason, evidence, status, reviewed_by, reviewed_at, review_notes, submitted_at`

type regularizationRepository struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) regularization.RegularizationRepository {
	return &regularizationRepository{db: db}
}

// Create implements regularization.RegularizationRepository.
func (r *regularizationRepository) Create(ctx context.Context, req regularization.RegularizationRequest) (regularization.RegularizationRequest, error) {
	if err := req.Validate(time.Now()); err != nil {
		return regularization.RegularizationRequest{}, err
	}

	if req.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return regularization.RegularizationRequest{}, fmt.Errorf("failed to generate request id: %w", err)
		}
		req.ID = id.String()
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	evidence, err := regularization.EncodeEvidence(req.Evidence)
	if err != nil {
		return regularization.RegularizationRequest{}, err
	}

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO regularization_requests (
			id, employee_id, company_id, attendance_date, request_type,
			current_check_in, current_check_out, requested_check_in, requested_check_out,
			reason, evidence, status, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::text::time, $7::text::time, $8::text::time, $9::text::time,
			$10, $11, $12, $13
		) RETURNING ` + regularizationColumns

	created, err := scanRegularization(q.QueryRow(ctx, query,
		req.ID,
		req.EmployeeID,
		req.CompanyID,
		attendance.DateOnly(req.AttendanceDate),
		string(req.RequestType),
		attendance.ClockTimePtrToString(req.CurrentCheckIn),
		attendance.ClockTimePtrToString(req.CurrentCheckOut),
		attendance.ClockTimePtrToString(req.RequestedCheckIn),
		attendance.ClockTimePtrToString(req.RequestedCheckOut),
		req.Reason,
		evidence,
		string(regularization.StatusPending),
		req.SubmittedAt,
	))
	if err != nil {
		if isUniqueViolation(err, pendingRequestIndex) {
			return regularization.RegularizationRequest{}, regularization.ErrRequestAlreadyPending
		}
		return regularization.RegularizationRequest{}, database.Unavailable("create regularization request", err)
	}

	return created, nil
}

// TransitionStatus implements regularization.RegularizationRepository.
func (r *regularizationRepository) TransitionStatus(ctx context.Context, id string, companyID string, from regularization.Status, to regularization.Status, reviewerID string, notes *string, reviewedAt time.Time) (regularization.RegularizationRequest, error) {
	q := GetQuerier(ctx, r.db)

	// The status predicate is re-checked after any concurrent writer commits,
	// so at most one transition out of `from` succeeds.
	query := `
		UPDATE regularization_requests
		SET status = $4, reviewed_by = $5, reviewed_at = $6, review_notes = $7
		WHERE id = $1 AND company_id = $2 AND status = $3
		RETURNING ` + regularizationColumns

	updated, err := scanRegularization(q.QueryRow(ctx, query,
		id, companyID, string(from), string(to), reviewerID, reviewedAt.UTC(), notes,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return regularization.RegularizationRequest{}, database.Unavailable("transition regularization request", err)
	}

	var exists bool
	err = q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM regularization_requests WHERE id = $1 AND company_id = $2)`,
		id, companyID,
	).Scan(&exists)
	if err != nil {
		return regularization.RegularizationRequest{}, database.Unavailable("check regularization request", err)
	}
	if !exists {
		return regularization.RegularizationRequest{}, regularization.ErrNotFound
	}
	return regularization.RegularizationRequest{}, regularization.ErrRequestAlreadyReviewed
}

// GetByID implements regularization.RegularizationRepository.
func (r *regularizationRepository) GetByID(ctx context.Context, id string, companyID string) (regularization.RegularizationRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `
		FROM regularization_requests
		WHERE id = $1 AND company_id = $2`

	req, err := scanRegularization(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return regularization.RegularizationRequest{}, regularization.ErrNotFound
		}
		return regularization.RegularizationRequest{}, database.Unavailable("get regularization request", err)
	}

	return req, nil
}

// ListPendingFor implements regularization.RegularizationRepository.
func (r *regularizationRepository) ListPendingFor(ctx context.Context, employeeID string, companyID string, date time.Time) ([]regularization.RegularizationRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `
		FROM regularization_requests
		WHERE employee_id = $1 AND company_id = $2 AND attendance_date = $3 AND status = $4
		ORDER BY submitted_at ASC`

	rows, err := q.Query(ctx, query, employeeID, companyID, attendance.DateOnly(date), string(regularization.StatusPending))
	if err != nil {
		return nil, database.Unavailable("list pending regularization requests", err)
	}
	defer rows.Close()

	return collectRegularizations(rows)
}

// List implements regularization.RegularizationRepository.
func (r *regularizationRepository) List(ctx context.Context, filter regularization.RegularizationFilter, companyID string) ([]regularization.RegularizationRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		if startDate, ok := validator.IsValidDate(*filter.StartDate); ok {
			baseWhere += fmt.Sprintf(" AND attendance_date >= $%d", argIdx)
			args = append(args, startDate)
			argIdx++
		}
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		if endDate, ok := validator.IsValidDate(*filter.EndDate); ok {
			baseWhere += fmt.Sprintf(" AND attendance_date <= $%d", argIdx)
			args = append(args, endDate)
			argIdx++
		}
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM regularization_requests WHERE ` + baseWhere
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.Unavailable("count regularization requests", err)
	}

	// Build ORDER BY
	orderByField := "submitted_at"
	switch filter.SortBy {
	case "attendance_date":
		orderByField = "attendance_date"
	case "status":
		orderByField = "status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM regularization_requests
		WHERE %s
		ORDER BY %s %s, id %s
		LIMIT $%d OFFSET $%d
	`, regularizationColumns, baseWhere, orderByField, sortOrder, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, database.Unavailable("list regularization requests", err)
	}
	defer rows.Close()

	requests, err := collectRegularizations(rows)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func collectRegularizations(rows pgx.Rows) ([]regularization.RegularizationRequest, error) {
	var requests []regularization.RegularizationRequest
	for rows.Next() {
		req, err := scanRegularization(rows)
		if err != nil {
			return nil, database.Unavailable("scan regularization request", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate regularization requests", err)
	}
	return requests, nil
}

func scanRegularization(row pgx.Row) (regularization.RegularizationRequest, error) {
	var (
		req                                              regularization.RegularizationRequest
		requestType, status                              string
		currentIn, currentOut, requestedIn, requestedOut *string
		evidence                                         []byte
	)

	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.CompanyID, &req.AttendanceDate, &requestType,
		&currentIn, &currentOut, &requestedIn, &requestedOut,
		&req.Reason, &evidence, &status, &req.ReviewedBy, &req.ReviewedAt, &req.ReviewNotes, &req.SubmittedAt,
	)
	if err != nil {
		return regularization.RegularizationRequest{}, err
	}

	req.RequestType = regularization.RequestType(requestType)
	req.Status = regularization.Status(status)
	req.AttendanceDate = attendance.DateOnly(req.AttendanceDate)
	req.SubmittedAt = req.SubmittedAt.UTC()
	if req.ReviewedAt != nil {
		t := req.ReviewedAt.UTC()
		req.ReviewedAt = &t
	}

	for _, c := range []struct {
		dst **attendance.ClockTime
		src *string
	}{
		{&req.CurrentCheckIn, currentIn},
		{&req.CurrentCheckOut, currentOut},
		{&req.RequestedCheckIn, requestedIn},
		{&req.RequestedCheckOut, requestedOut},
	} {
		if *c.dst, err = attendance.ParseClockTimePtr(c.src); err != nil {
			return regularization.RegularizationRequest{}, fmt.Errorf("failed to decode stored time: %w", err)
		}
	}

	if req.Evidence, err = regularization.ParseEvidence(evidence); err != nil {
		return regularization.RegularizationRequest{}, err
	}

	return req, nil
}
