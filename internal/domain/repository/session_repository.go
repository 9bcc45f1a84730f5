package repository

import (
	"context"
	"time"

	"patient-appointments-bff/internal/domain/entity"
)

type SessionRepository interface {
	Save(ctx context.Context, tokenID string, session *entity.Session, ttl time.Duration) error
	Find(ctx context.Context, tokenID string) (*entity.Session, error)
	Delete(ctx context.Context, tokenIDs ...string) error
}
