package repository

import (
	"patient-appointments-bff/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindByUserID(db *gorm.DB, userID uuid.UUID, limit int) ([]entity.AuditLog, error)
}
