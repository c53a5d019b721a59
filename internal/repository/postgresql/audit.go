package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/database"
	"github.com/google/uuid"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.AuditRepository {
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
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)

	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO regularization_audit_logs (
			id, request_id, company_id, action, actor_id, actor_type,
			ip_address, user_agent, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.CompanyID,
		string(entry.Action),
		entry.ActorID,
		string(entry.ActorType),
		entry.IPAddress,
		entry.UserAgent,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return audit.AuditLog{}, database.Unavailable("append audit log", err)
	}

	return entry, nil
}

// ListForRequest implements audit.AuditRepository.
func (r *auditRepository) ListForRequest(ctx context.Context, requestID string, companyID string) ([]audit.AuditLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, company_id, action, actor_id, actor_type,
			   ip_address, user_agent, reason, created_at
		FROM regularization_audit_logs
		WHERE request_id = $1 AND company_id = $2
		ORDER BY created_at ASC, seq ASC`

	rows, err := q.Query(ctx, query, requestID, companyID)
	if err != nil {
		return nil, database.Unavailable("list audit logs", err)
	}
	defer rows.Close()

	var entries []audit.AuditLog
	for rows.Next() {
		var (
			entry             audit.AuditLog
			action, actorType string
		)
		err := rows.Scan(
			&entry.ID, &entry.RequestID, &entry.CompanyID, &action, &entry.ActorID, &actorType,
			&entry.IPAddress, &entry.UserAgent, &entry.Reason, &entry.CreatedAt,
		)
		if err != nil {
			return nil, database.Unavailable("scan audit log", err)
		}
		entry.Action = audit.Action(action)
		entry.ActorType = audit.ActorType(actorType)
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate audit logs", err)
	}

	return entries, nil
}
