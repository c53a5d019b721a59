package audit

import "errors"

var (
	ErrInvalidAction   = errors.New("invalid audit action")
	ErrRequestRequired = errors.New("audit entry must reference a request")
)

// Validate checks the fields every stored entry must carry.
func (e AuditLog) Validate() error {
	if e.RequestID == "" {
		return ErrRequestRequired
	}
	if !e.Action.IsValid() {
		return ErrInvalidAction
	}
	return nil
}
