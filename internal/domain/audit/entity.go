package audit

import "time"

type Action string

const (
	ActionSubmitted         Action = "submitted"
	ActionApproved          Action = "approved"
	ActionRejected          Action = "rejected"
	ActionMoreInfoRequested Action = "more_info_requested"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionSubmitted, ActionApproved, ActionRejected, ActionMoreInfoRequested:
		return true
	}
	return false
}

type ActorType string

const (
	ActorTypeEmployee ActorType = "employee"
	ActorTypeReviewer ActorType = "reviewer"
)

// AuditLog is one immutable entry of a regularization request's history.
// Entries are never updated or deleted.
type AuditLog struct {
	ID        string
	RequestID string
	CompanyID string
	Action    Action
	ActorID   string
	ActorType ActorType
	IPAddress string
	UserAgent string
	Reason    string
	CreatedAt time.Time
}
