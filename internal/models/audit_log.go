package models

// Audit event types. Only these values appear in audit_logs.event_type.
const (
	AuditAuthSuccess        = "AUTH_SUCCESS"
	AuditAuthFailure        = "AUTH_FAILURE"
	AuditPasswordChange     = "PASSWORD_CHANGE"
	AuditDataAccess         = "DATA_ACCESS"
	AuditDataModification   = "DATA_MODIFICATION"
	AuditSuspiciousActivity = "SUSPICIOUS_ACTIVITY"
)

// AuditLog records one security-relevant event. ActorID is nil for
// pre-authentication failures.
type AuditLog struct {
	Base
	EventType string  `gorm:"not null;index" json:"event_type"`
	ActorID   *string `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	IPAddress string  `json:"ip_address"`
	Details   string  `json:"details,omitempty"`
}
