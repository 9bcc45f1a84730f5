package usecase

import (
	"context"

	"patient-appointments-bff/internal/converter"
	"patient-appointments-bff/internal/delivery/dto"
	"patient-appointments-bff/internal/domain/entity"
	"patient-appointments-bff/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type AuditLogUsecase interface {
	GetSessionActivity(ctx context.Context, session *entity.Session, limit int) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetSessionActivity lists the newest login and refresh events of the patient behind a session
func (u *auditLogUsecase) GetSessionActivity(ctx context.Context, session *entity.Session, limit int) (*dto.AuditLogListResponse, error) {
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	logs, err := u.auditLogRepo.FindByUserID(u.db.WithContext(ctx), session.UserID, limit)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
