package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/validator"
	"github.com/google/uuid"
)

const regularizationColumns = `
	id, employee_id, company_id, attendance_date, request_type,
	current_check_in, current_check_out, requested_check_in, requested_check_out,
	reason, evidence, status, reviewed_by, reviewed_at, review_notes, submitted_at`

type regularizationRepository struct {
	db *database.SQLiteDB
}

func NewRegularizationRepository(db *database.SQLiteDB) regularization.RegularizationRepository {
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
		req.SubmittedAt = time.Now()
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = q.ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		req.CompanyID,
		formatDate(req.AttendanceDate),
		string(req.RequestType),
		attendance.ClockTimePtrToString(req.CurrentCheckIn),
		attendance.ClockTimePtrToString(req.CurrentCheckOut),
		attendance.ClockTimePtrToString(req.RequestedCheckIn),
		attendance.ClockTimePtrToString(req.RequestedCheckOut),
		req.Reason,
		evidence,
		string(regularization.StatusPending),
		formatTimestamp(req.SubmittedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return regularization.RegularizationRequest{}, regularization.ErrRequestAlreadyPending
		}
		return regularization.RegularizationRequest{}, database.Unavailable("create regularization request", err)
	}

	return r.GetByID(ctx, req.ID, req.CompanyID)
}

// TransitionStatus implements regularization.RegularizationRepository.
func (r *regularizationRepository) TransitionStatus(ctx context.Context, id string, companyID string, from regularization.Status, to regularization.Status, reviewerID string, notes *string, reviewedAt time.Time) (regularization.RegularizationRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE regularization_requests
		SET status = ?, reviewed_by = ?, reviewed_at = ?, review_notes = ?
		WHERE id = ? AND company_id = ? AND status = ?`

	result, err := q.ExecContext(ctx, query,
		string(to), reviewerID, formatTimestamp(reviewedAt), notes,
		id, companyID, string(from),
	)
	if err != nil {
		return regularization.RegularizationRequest{}, database.Unavailable("transition regularization request", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return regularization.RegularizationRequest{}, database.Unavailable("transition regularization request", err)
	}

	if affected == 0 {
		// Either it does not exist for this company or it has already moved on.
		if _, err := r.GetByID(ctx, id, companyID); err != nil {
			return regularization.RegularizationRequest{}, err
		}
		return regularization.RegularizationRequest{}, regularization.ErrRequestAlreadyReviewed
	}

	return r.GetByID(ctx, id, companyID)
}

// GetByID implements regularization.RegularizationRepository.
func (r *regularizationRepository) GetByID(ctx context.Context, id string, companyID string) (regularization.RegularizationRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `
		FROM regularization_requests
		WHERE id = ? AND company_id = ?`

	req, err := scanRegularization(q.QueryRowContext(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		WHERE employee_id = ? AND company_id = ? AND attendance_date = ? AND status = ?
		ORDER BY submitted_at ASC`

	rows, err := q.QueryContext(ctx, query, employeeID, companyID, formatDate(date), string(regularization.StatusPending))
	if err != nil {
		return nil, database.Unavailable("list pending regularization requests", err)
	}
	defer rows.Close()

	return collectRegularizations(rows)
}

// List implements regularization.RegularizationRepository.
func (r *regularizationRepository) List(ctx context.Context, filter regularization.RegularizationFilter, companyID string) ([]regularization.RegularizationRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = ?"
	args := []interface{}{companyID}

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += " AND employee_id = ?"
		args = append(args, *filter.EmployeeID)
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += " AND status = ?"
		args = append(args, *filter.Status)
	}

	// Dates are stored as YYYY-MM-DD, so string comparison is date comparison.
	if filter.StartDate != nil && *filter.StartDate != "" {
		if startDate, ok := validator.IsValidDate(*filter.StartDate); ok {
			baseWhere += " AND attendance_date >= ?"
			args = append(args, formatDate(startDate))
		}
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		if endDate, ok := validator.IsValidDate(*filter.EndDate); ok {
			baseWhere += " AND attendance_date <= ?"
			args = append(args, formatDate(endDate))
		}
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM regularization_requests WHERE ` + baseWhere
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.Unavailable("count regularization requests", err)
	}

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
		LIMIT ? OFFSET ?
	`, regularizationColumns, baseWhere, orderByField, sortOrder, sortOrder)
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, selectQuery, args...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func collectRegularizations(rows *sql.Rows) ([]regularization.RegularizationRequest, error) {
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

func scanRegularization(row rowScanner) (regularization.RegularizationRequest, error) {
	var (
		req                                              regularization.RegularizationRequest
		attendanceDate, requestType, status, submittedAt string
		currentIn, currentOut, requestedIn, requestedOut sql.NullString
		reviewedBy, reviewedAt, reviewNotes              sql.NullString
		evidence                                         []byte
	)

	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.CompanyID, &attendanceDate, &requestType,
		&currentIn, &currentOut, &requestedIn, &requestedOut,
		&req.Reason, &evidence, &status, &reviewedBy, &reviewedAt, &reviewNotes, &submittedAt,
	)
	if err != nil {
		return regularization.RegularizationRequest{}, err
	}

	req.RequestType = regularization.RequestType(requestType)
	req.Status = regularization.Status(status)

	if req.AttendanceDate, err = parseDate(attendanceDate); err != nil {
		return regularization.RegularizationRequest{}, err
	}
	if req.SubmittedAt, err = parseTimestamp(submittedAt); err != nil {
		return regularization.RegularizationRequest{}, err
	}

	for _, c := range []struct {
		dst **attendance.ClockTime
		src sql.NullString
	}{
		{&req.CurrentCheckIn, currentIn},
		{&req.CurrentCheckOut, currentOut},
		{&req.RequestedCheckIn, requestedIn},
		{&req.RequestedCheckOut, requestedOut},
	} {
		if *c.dst, err = attendance.ParseClockTimePtr(nullStringPtr(c.src)); err != nil {
			return regularization.RegularizationRequest{}, fmt.Errorf("failed to decode stored time: %w", err)
		}
	}

	req.ReviewedBy = nullStringPtr(reviewedBy)
	req.ReviewNotes = nullStringPtr(reviewNotes)
	if reviewedAt.Valid {
		t, err := parseTimestamp(reviewedAt.String)
		if err != nil {
			return regularization.RegularizationRequest{}, err
		}
		req.ReviewedAt = &t
	}

	if req.Evidence, err = regularization.ParseEvidence(evidence); err != nil {
		return regularization.RegularizationRequest{}, err
	}

	return req, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
