// Package session caches authenticated CRM sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forceautomaton/api/internal/crm"
	"github.com/redis/go-redis/v9"
)

// RedisStore caches CRM sessions in Redis with a per-entry expiration
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session cache
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "crm-session:",
	}
}

// key generates the Redis key for a derived session key
func (s *RedisStore) key(sessionKey string) string {
	return s.prefix + sessionKey
}

// Get returns the cached session for key. A miss is reported with ok=false
// and a nil error.
func (s *RedisStore) Get(ctx context.Context, sessionKey string) (crm.Session, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return crm.Session{}, false, nil
	}
	if err != nil {
		return crm.Session{}, false, fmt.Errorf("lookup crm session: %w", err)
	}

	var session crm.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return crm.Session{}, false, fmt.Errorf("unmarshal crm session: %w", err)
	}
	if session.Token == "" || session.ServerURL == "" {
		return crm.Session{}, false, nil
	}
	return session, true, nil
}

// Put stores a session under key for ttl
func (s *RedisStore) Put(ctx context.Context, sessionKey string, session crm.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal crm session: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, s.key(sessionKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("save crm session: %w", err)
	}
	return nil
}

// Delete evicts the session cached under key
func (s *RedisStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, s.key(sessionKey)).Err(); err != nil {
		return fmt.Errorf("evict crm session: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
