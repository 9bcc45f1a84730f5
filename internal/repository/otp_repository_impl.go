package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"patient-appointments-bff/internal/domain/entity"
	domainRepo "patient-appointments-bff/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const (
	otpKeyPrefix         = "otp:challenge:"
	otpCooldownKeyPrefix = "otp:cooldown:"
)

type otpRepository struct {
	redisClient *redis.Client
}

func NewOTPRepository(redisClient *redis.Client) domainRepo.OTPRepository {
	return &otpRepository{redisClient: redisClient}
}

func (r *otpRepository) Save(ctx context.Context, key string, challenge *entity.OTPChallenge, ttl time.Duration) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal otp challenge: %w", err)
	}
	return r.redisClient.Set(ctx, otpKeyPrefix+key, payload, ttl).Err()
}

// Find returns nil without error when no challenge is stored for key.
func (r *otpRepository) Find(ctx context.Context, key string) (*entity.OTPChallenge, error) {
	raw, err := r.redisClient.Get(ctx, otpKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var challenge entity.OTPChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, fmt.Errorf("unmarshal otp challenge: %w", err)
	}
	return &challenge, nil
}

func (r *otpRepository) Delete(ctx context.Context, key string) error {
	return r.redisClient.Del(ctx, otpKeyPrefix+key, otpCooldownKeyPrefix+key).Err()
}

func (r *otpRepository) AcquireCooldown(ctx context.Context, key string, cooldown time.Duration) (bool, time.Duration, error) {
	ok, err := r.redisClient.SetNX(ctx, otpCooldownKeyPrefix+key, "1", cooldown).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := r.CooldownRemaining(ctx, key)
	if err != nil {
		return false, 0, err
	}
	return false, remaining, nil
}

func (r *otpRepository) ReleaseCooldown(ctx context.Context, key string) error {
	return r.redisClient.Del(ctx, otpCooldownKeyPrefix+key).Err()
}

func (r *otpRepository) CooldownRemaining(ctx context.Context, key string) (time.Duration, error) {
	remaining, err := r.redisClient.PTTL(ctx, otpCooldownKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
