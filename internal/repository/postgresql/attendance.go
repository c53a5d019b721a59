package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const attendanceColumns = `
	id, employee_id, company_id, date, check_in::text, check_out::text,
	work_hours::text, overtime_hours::text, status, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
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

	q := GetQuerier(ctx, a.db)

	// company_id is part of the conflict guard: a key owned by another
	// company is never overwritten and surfaces as no row.
	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date, check_in, check_out,
			work_hours, overtime_hours, status
		) VALUES (
			$1, $2, $3, $4, $5::text::time, $6::text::time,
			$7::text::numeric, $8::text::numeric, $9
		)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			work_hours = EXCLUDED.work_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			status = EXCLUDED.status,
			updated_at = NOW()
		WHERE attendances.company_id = EXCLUDED.company_id
		RETURNING ` + attendanceColumns

	att, err := scanAttendance(q.QueryRow(ctx, query,
		id.String(),
		employeeID,
		companyID,
		attendance.DateOnly(date),
		attendance.ClockTimePtrToString(mutation.CheckIn),
		attendance.ClockTimePtrToString(mutation.CheckOut),
		mutation.WorkHours.String(),
		mutation.OvertimeHours.String(),
		string(mutation.Status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, database.Unavailable("upsert attendance", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, companyID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND company_id = $2
		  AND date = $3
		LIMIT 1`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, companyID, attendance.DateOnly(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, database.Unavailable("get attendance by employee and date", err)
	}

	return &att, nil
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		att                 attendance.Attendance
		checkIn, checkOut   *string
		workHours, overtime string
		status              string
	)

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.CompanyID, &att.Date, &checkIn, &checkOut,
		&workHours, &overtime, &status, &att.CreatedAt, &att.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	att.Date = attendance.DateOnly(att.Date)
	att.Status = attendance.AttendanceStatus(status)
	att.CreatedAt = att.CreatedAt.UTC()
	att.UpdatedAt = att.UpdatedAt.UTC()

	if att.CheckIn, err = attendance.ParseClockTimePtr(checkIn); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to decode check_in: %w", err)
	}
	if att.CheckOut, err = attendance.ParseClockTimePtr(checkOut); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to decode check_out: %w", err)
	}
	if att.WorkHours, err = decimal.NewFromString(workHours); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to decode work_hours: %w", err)
	}
	if att.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to decode overtime_hours: %w", err)
	}

	return att, nil
}
