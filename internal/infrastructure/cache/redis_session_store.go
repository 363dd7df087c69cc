package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profitboard/backend/internal/domain/costsync"
	"github.com/profitboard/backend/internal/domain/shared"
)

// RedisSessionStore keeps the platform session in Redis so that multiple
// instances can share one login instead of each racing to re-authenticate.
type RedisSessionStore struct {
	client *redis.Client
	key    string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSessionStore creates a Redis-backed session store and verifies
// the connection before returning.
func NewRedisSessionStore(cfg RedisConfig, key string) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSessionStoreWithClient(client, key), nil
}

// NewRedisSessionStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisSessionStoreWithClient(client *redis.Client, key string) *RedisSessionStore {
	if key == "" {
		key = "easyboss_cookie"
	}
	return &RedisSessionStore{
		client: client,
		key:    "session:" + key,
	}
}

// Load returns the stored session, or shared.ErrNotFound when no login has
// been persisted yet.
func (s *RedisSessionStore) Load(ctx context.Context) (*costsync.Session, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session costsync.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Save overwrites the stored session. Sessions carry their own issue time,
// so no Redis TTL is applied; staleness is decided by the caller.
func (s *RedisSessionStore) Save(ctx context.Context, session *costsync.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// Ensure RedisSessionStore implements SessionStore
var _ costsync.SessionStore = (*RedisSessionStore)(nil)
