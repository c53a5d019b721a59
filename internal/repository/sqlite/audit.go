package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/google/uuid"
)

type auditRepository struct {
	db *database.SQLiteDB
}

func NewAuditRepository(db *database.SQLiteDB) audit.AuditRepository {
	return &auditRepository{db: db}
}

// Append implements audit.AuditRepository.
func (r *auditRepository) Append(ctx context.Context, entry audit.AuditLog) (audit.AuditLog, error) {
	if err := entry.Validate(); err != nil {
		return audit.AuditLog{}, err
	}

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return audit.AuditLog{}, fmt.Errorf("failed to generate audit id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO regularization_audit_logs (
			id, request_id, company_id, action, actor_id, actor_type,
			ip_address, user_agent, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.CompanyID,
		string(entry.Action),
		entry.ActorID,
		string(entry.ActorType),
		entry.IPAddress,
		entry.UserAgent,
		entry.Reason,
		formatTimestamp(entry.CreatedAt),
	)
	if err != nil {
		return audit.AuditLog{}, database.Unavailable("append audit log", err)
	}

	return entry, nil
}

// ListForRequest implements audit.AuditRepository.
func (r *auditRepository) ListForRequest(ctx context.Context, requestID string, companyID string) ([]audit.AuditLog, error) {
	q := GetQuerier(ctx, r.db)

	// rowid follows insertion order and breaks created_at ties.
	query := `
		SELECT id, request_id, company_id, action, actor_id, actor_type,
			   ip_address, user_agent, reason, created_at
		FROM regularization_audit_logs
		WHERE request_id = ? AND company_id = ?
		ORDER BY created_at ASC, rowid ASC`

	rows, err := q.QueryContext(ctx, query, requestID, companyID)
	if err != nil {
		return nil, database.Unavailable("list audit logs", err)
	}
	defer rows.Close()

	var entries []audit.AuditLog
	for rows.Next() {
		var (
			entry                        audit.AuditLog
			action, actorType, createdAt string
		)
		err := rows.Scan(
			&entry.ID, &entry.RequestID, &entry.CompanyID, &action, &entry.ActorID, &actorType,
			&entry.IPAddress, &entry.UserAgent, &entry.Reason, &createdAt,
		)
		if err != nil {
			return nil, database.Unavailable("scan audit log", err)
		}
		entry.Action = audit.Action(action)
		entry.ActorType = audit.ActorType(actorType)
		if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate audit logs", err)
	}

	return entries, nil
}
