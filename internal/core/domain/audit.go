package domain

import "time"

// Audit event kinds for the session lifecycle trail.
const (
	AuditSessionCreated     = "session_created"
	AuditSessionDestroyed   = "session_destroyed"
	AuditSessionInvalidated = "session_invalidated"
)

// AuditEvent records one session lifecycle transition owned by the edge.
type AuditEvent struct {
	SessionID string
	UID       string
	Email     string
	Event     string
	Reason    string
	At        time.Time
}
