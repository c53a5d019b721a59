package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pendingRequestIndex = "uq_regularization_requests_pending"
	attendanceKey       = "uq_attendances_employee_date"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS regularization_requests (
		id                  TEXT PRIMARY KEY,
		employee_id         TEXT NOT NULL,
		company_id          TEXT NOT NULL,
		attendance_date     DATE NOT NULL,
		request_type        TEXT NOT NULL CHECK (request_type IN ('check_in', 'check_out', 'full_day')),
		current_check_in    TIME,
		current_check_out   TIME,
		requested_check_in  TIME,
		requested_check_out TIME,
		reason              TEXT NOT NULL CHECK (btrim(reason) <> ''),
		evidence            JSONB,
		status              TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected', 'more_info_required')),
		reviewed_by         TEXT,
		reviewed_at         TIMESTAMPTZ,
		review_notes        TEXT,
		submitted_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + pendingRequestIndex + `
		ON regularization_requests (employee_id, attendance_date)
		WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_regularization_requests_company_status
		ON regularization_requests (company_id, status, submitted_at)`,

	`CREATE TABLE IF NOT EXISTS attendances (
		id             TEXT PRIMARY KEY,
		employee_id    TEXT NOT NULL,
		company_id     TEXT NOT NULL,
		date           DATE NOT NULL,
		check_in       TIME,
		check_out      TIME,
		work_hours     NUMERIC NOT NULL DEFAULT 0 CHECK (work_hours >= 0),
		overtime_hours NUMERIC NOT NULL DEFAULT 0 CHECK (overtime_hours >= 0),
		status         TEXT NOT NULL CHECK (status IN ('present', 'absent', 'late', 'partial')),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ` + attendanceKey + ` UNIQUE (employee_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS regularization_audit_logs (
		seq        BIGSERIAL UNIQUE,
		id         TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES regularization_requests (id),
		company_id TEXT NOT NULL,
		action     TEXT NOT NULL CHECK (action IN ('submitted', 'approved', 'rejected', 'more_info_requested')),
		actor_id   TEXT NOT NULL,
		actor_type TEXT NOT NULL CHECK (actor_type IN ('employee', 'reviewer')),
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		reason     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_regularization_audit_logs_request
		ON regularization_audit_logs (request_id, created_at, seq)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *database.DB) error {
	return WithTransaction(ctx, db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, db)
		for _, stmt := range schema {
			if _, err := q.Exec(txCtx, stmt); err != nil {
				return database.Unavailable("migrate schema", err)
			}
		}
		return nil
	})
}

// isUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
}
