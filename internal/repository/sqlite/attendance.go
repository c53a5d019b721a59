package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	db *database.SQLiteDB
}

func NewAttendanceRepository(db *database.SQLiteDB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Upsert(ctx context.Context, employeeID string, companyID string, date time.Time, mutation attendance.AttendanceMutation) (attendance.Attendance, error) {
	if err := mutation.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	now := formatTimestamp(time.Now())

	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date, check_in, check_out,
			work_hours, overtime_hours, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			work_hours = excluded.work_hours,
			overtime_hours = excluded.overtime_hours,
			status = excluded.status,
			updated_at = excluded.updated_at
		WHERE attendances.company_id = excluded.company_id`

	_, err = q.ExecContext(ctx, query,
		id.String(),
		employeeID,
		companyID,
		formatDate(date),
		attendance.ClockTimePtrToString(mutation.CheckIn),
		attendance.ClockTimePtrToString(mutation.CheckOut),
		mutation.WorkHours.String(),
		mutation.OvertimeHours.String(),
		string(mutation.Status),
		now,
		now,
	)
	if err != nil {
		return attendance.Attendance{}, database.Unavailable("upsert attendance", err)
	}

	att, err := a.GetByEmployeeAndDate(ctx, employeeID, companyID, date)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if att == nil {
		// The key belongs to another company and was left untouched.
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	return *att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, companyID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, company_id, date, check_in, check_out,
			   work_hours, overtime_hours, status, created_at, updated_at
		FROM attendances
		WHERE employee_id = ? AND company_id = ? AND date = ?
		LIMIT 1`

	var (
		att                  attendance.Attendance
		storedDate, status   string
		checkIn, checkOut    sql.NullString
		workHours, overtime  string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, query, employeeID, companyID, formatDate(date)).Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &storedDate, &checkIn, &checkOut,
		&workHours, &overtime, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, database.Unavailable("get attendance by employee and date", err)
	}

	att.Status = attendance.AttendanceStatus(status)
	if att.Date, err = parseDate(storedDate); err != nil {
		return nil, err
	}
	if att.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if att.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	if att.CheckIn, err = attendance.ParseClockTimePtr(nullStringPtr(checkIn)); err != nil {
		return nil, fmt.Errorf("failed to decode check_in: %w", err)
	}
	if att.CheckOut, err = attendance.ParseClockTimePtr(nullStringPtr(checkOut)); err != nil {
		return nil, fmt.Errorf("failed to decode check_out: %w", err)
	}
	if att.WorkHours, err = decimal.NewFromString(workHours); err != nil {
		return nil, fmt.Errorf("failed to decode work_hours: %w", err)
	}
	if att.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
		return nil, fmt.Errorf("failed to decode overtime_hours: %w", err)
	}

	return &att, nil
}
