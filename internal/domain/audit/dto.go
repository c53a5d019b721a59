package audit

type AuditLogResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	ActorID   string `json:"actor_id"`
	ActorType string `json:"actor_type"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func ToResponse(entry AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        entry.ID,
		RequestID: entry.RequestID,
		Action:    string(entry.Action),
		ActorID:   entry.ActorID,
		ActorType: string(entry.ActorType),
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
