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

const sessionKeyPrefix = "session:"

type sessionRepository struct {
	redisClient *redis.Client
}

func NewSessionRepository(redisClient *redis.Client) domainRepo.SessionRepository {
	return &sessionRepository{redisClient: redisClient}
}

func sessionKey(tokenID string) string {
	return sessionKeyPrefix + tokenID
}

func (r *sessionRepository) Save(ctx context.Context, tokenID string, session *entity.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.redisClient.Set(ctx, sessionKey(tokenID), payload, ttl).Err()
}

// Find returns nil without error when the token has no live session.
func (r *sessionRepository) Find(ctx context.Context, tokenID string) (*entity.Session, error) {
	raw, err := r.redisClient.Get(ctx, sessionKey(tokenID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, tokenIDs ...string) error {
	keys := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if id != "" {
			keys = append(keys, sessionKey(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return r.redisClient.Del(ctx, keys...).Err()
}
