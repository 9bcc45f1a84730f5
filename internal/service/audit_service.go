package service

import (
	"context"

	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditService interface {
	LogEvent(ctx context.Context, userID *uuid.UUID, sessionID string, action string, metadata entity.JSON) error
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogEvent records one session activity entry
func (s *auditService) LogEvent(ctx context.Context, userID *uuid.UUID, sessionID string, action string, metadata entity.JSON) error {
	auditLog := &entity.AuditLog{
		UserID:    userID,
		SessionID: sessionID,
		Action:    action,
		Metadata:  metadata,
	}

	if err := s.auditRepo.Create(s.db.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
