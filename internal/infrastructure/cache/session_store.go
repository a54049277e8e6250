package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"thunder-text-core/internal/ports"

	"github.com/redis/go-redis/v9"
)

// sessionTTL bounds how long an OAuth connect flow may stay in flight.
const sessionTTL = 10 * time.Minute

// RedisSessionStore keeps OAuth CSRF state sessions in Redis with a TTL, so
// abandoned connect flows expire on their own.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store on the given Redis client.
func NewRedisSessionStore(client *redis.Client) ports.SessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(state string) string {
	return "oauth_session:" + state
}

// Create stores the session under its state value.
func (s *RedisSessionStore) Create(ctx context.Context, session *ports.OAuthSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.State), raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the state is unknown or already expired.
func (s *RedisSessionStore) Get(ctx context.Context, state string) (*ports.OAuthSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session ports.OAuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a consumed session.
func (s *RedisSessionStore) Delete(ctx context.Context, state string) error {
	if err := s.client.Del(ctx, sessionKey(state)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
