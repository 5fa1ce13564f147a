package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/infrastructure/cache"
	"sentinel-lab/pkg/logger"
)

// RedisStore persists sessions in Redis with a sliding TTL. Every
// Save refreshes the TTL, so sessions expire only after the scammer
// goes quiet.
type RedisStore struct {
	cache  *cache.RedisCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(c *cache.RedisCache, ttl time.Duration, log *logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		cache:  c,
		ttl:    ttl,
		logger: log.WithComponent("session-store"),
	}
}

func sessionKey(id string) string {
	return cache.KeySessionPrefix + id
}

// Load fetches the session, synthesizing a new one on cache miss
func (s *RedisStore) Load(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.cache.GetJSON(ctx, sessionKey(id), &session)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewSession(id), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &session, nil
}

// Save persists the session and refreshes its TTL
func (s *RedisStore) Save(ctx context.Context, session *models.Session) error {
	if err := s.cache.SetJSON(ctx, sessionKey(session.ID), session, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Count is not cheap to answer over the whole keyspace
func (s *RedisStore) Count(_ context.Context) int {
	return -1
}

// Close is a no-op; the shared cache owns the connection
func (s *RedisStore) Close() error {
	return nil
}
