package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/stylecoach/internal/session"
)

// Cache abstracts the Redis operations used for session state.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisCache is a concrete implementation backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set writes a value to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a cached value. A missing key yields redis.Nil.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func sessionKey(id string) string {
	return "session:" + id
}

// sessionLocks serialises read-modify-write cycles on the same session within this process.
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}

func (uc *AnalysisUseCase) saveSession(ctx context.Context, requestID string, s *session.Session) error {
	serialized, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return uc.withCacheRetry(ctx, requestID, "cache.set.session", func() error {
		return uc.cache.Set(ctx, sessionKey(s.ID), string(serialized), uc.sessionTTL)
	})
}

// loadSession returns ErrSessionNotFound for unknown, expired or foreign sessions.
func (uc *AnalysisUseCase) loadSession(ctx context.Context, requestID, viewerID, sessionID string) (*session.Session, error) {
	value, err := uc.withCacheGet(ctx, requestID, "cache.get.session", sessionKey(sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s session.Session
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if s.ViewerID != viewerID {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}
