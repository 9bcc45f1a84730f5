package repository

import (
	"context"
	"time"

	"patient-appointments-bff/internal/domain/entity"
)

// OTPGateway delivers and verifies codes through the healthcare backend.
type OTPGateway interface {
	SendOTP(ctx context.Context, identity entity.OTPIdentity) error
	VerifyOTP(ctx context.Context, identity entity.OTPIdentity, code string) (*entity.BackendLogin, error)
}

// OTPRepository tracks issued challenges and resend cooldowns.
type OTPRepository interface {
	Save(ctx context.Context, key string, challenge *entity.OTPChallenge, ttl time.Duration) error
	Find(ctx context.Context, key string) (*entity.OTPChallenge, error)
	Delete(ctx context.Context, key string) error
	// AcquireCooldown returns false and the remaining wait when a cooldown is still running.
	AcquireCooldown(ctx context.Context, key string, cooldown time.Duration) (bool, time.Duration, error)
	ReleaseCooldown(ctx context.Context, key string) error
	CooldownRemaining(ctx context.Context, key string) (time.Duration, error)
}
