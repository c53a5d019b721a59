package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/mattn/go-sqlite3"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS regularization_requests (
		id                  TEXT PRIMARY KEY,
		employee_id         TEXT NOT NULL,
		company_id          TEXT NOT NULL,
		attendance_date     TEXT NOT NULL,
		request_type        TEXT NOT NULL CHECK (request_type IN ('check_in', 'check_out', 'full_day')),
		current_check_in    TEXT,
		current_check_out   TEXT,
		requested_check_in  TEXT,
		requested_check_out TEXT,
		reason              TEXT NOT NULL CHECK (trim(reason) <> ''),
		evidence            BLOB,
		status              TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'approved', 'rejected', 'more_info_required')),
		reviewed_by         TEXT,
		reviewed_at         TEXT,
		review_notes        TEXT,
		submitted_at        TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_regularization_requests_pending
		ON regularization_requests (employee_id, attendance_date)
		WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_regularization_requests_company_status
		ON regularization_requests (company_id, status, submitted_at)`,

	`CREATE TABLE IF NOT EXISTS attendances (
		id             TEXT PRIMARY KEY,
		employee_id    TEXT NOT NULL,
		company_id     TEXT NOT NULL,
		date           TEXT NOT NULL,
		check_in       TEXT,
		check_out      TEXT,
		work_hours     TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		status         TEXT NOT NULL CHECK (status IN ('present', 'absent', 'late', 'partial')),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		UNIQUE (employee_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS regularization_audit_logs (
		id         TEXT PRIMARY KEY,
		request_id TEXT NOT NULL REFERENCES regularization_requests (id),
		company_id TEXT NOT NULL,
		action     TEXT NOT NULL CHECK (action IN ('submitted', 'approved', 'rejected', 'more_info_requested')),
		actor_id   TEXT NOT NULL,
		actor_type TEXT NOT NULL CHECK (actor_type IN ('employee', 'reviewer')),
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		reason     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_regularization_audit_logs_request
		ON regularization_audit_logs (request_id, created_at)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *database.SQLiteDB) error {
	return WithTransaction(ctx, db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, db)
		for _, stmt := range schema {
			if _, err := q.ExecContext(txCtx, stmt); err != nil {
				return database.Unavailable("migrate schema", err)
			}
		}
		return nil
	})
}

// isUniqueViolation reports whether err comes from a UNIQUE index. Primary
// key collisions carry a different extended code and do not match.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode stored date %q: %w", s, err)
	}
	return t, nil
}

// formatTimestamp uses a fixed-width UTC layout so stored values sort lexically.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
