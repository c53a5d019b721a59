package audit

import "context"

// AuditRepository is append-only: there is no update or delete.
type AuditRepository interface {
	// Append inserts entry. It fails only when storage is unavailable.
	Append(ctx context.Context, entry AuditLog) (AuditLog, error)

	// ListForRequest returns entries ordered by CreatedAt ascending,
	// ties broken by insertion order.
	ListForRequest(ctx context.Context, requestID string, companyID string) ([]AuditLog, error)
}
