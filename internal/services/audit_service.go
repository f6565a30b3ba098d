package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"cashflow/internal/logger"
	"cashflow/internal/models"
)

// auditService persists security events and mirrors them to the structured
// log. Failures are logged and swallowed: an audit write must never fail
// the request that produced it.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record appends one audit event.
func (s *auditService) Record(eventType string, actorID *string, sourceAddr string, details map[string]interface{}) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit details", "error", err, "event_type", eventType)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		EventType: eventType,
		ActorID:   actorID,
		IPAddress: sourceAddr,
		Details:   detailsJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"event_type", eventType,
			"ip_address", sourceAddr,
		)
	}

	logger.Get().Infow("audit",
		"event_type", eventType,
		"actor_id", actorID,
		"ip_address", sourceAddr,
		"details", detailsJSON,
	)
}

func (s *auditService) AuthSuccess(userID, sourceAddr string) {
	s.Record(models.AuditAuthSuccess, &userID, sourceAddr, map[string]interface{}{"action": "login"})
}

func (s *auditService) AuthFailure(email, sourceAddr, reason string) {
	s.Record(models.AuditAuthFailure, nil, sourceAddr, map[string]interface{}{"email": email, "reason": reason})
}

func (s *auditService) PasswordChange(userID, sourceAddr string) {
	s.Record(models.AuditPasswordChange, &userID, sourceAddr, map[string]interface{}{"action": "password_changed"})
}

func (s *auditService) DataAccess(userID, resource, sourceAddr string) {
	s.Record(models.AuditDataAccess, &userID, sourceAddr, map[string]interface{}{"resource": resource})
}

func (s *auditService) DataModification(userID, action, resourceID, sourceAddr string) {
	s.Record(models.AuditDataModification, &userID, sourceAddr, map[string]interface{}{"action": action, "resource_id": resourceID})
}

func (s *auditService) SuspiciousActivity(actorID *string, activity, sourceAddr string) {
	s.Record(models.AuditSuspiciousActivity, actorID, sourceAddr, map[string]interface{}{"activity": activity})
}
