// Package redis stores login sessions in Redis instead of SQLite. Each
// session is one JSON value under "session:<id>" whose Redis TTL matches the
// session's expiry, so Redis purges dead sessions on its own.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

const keyPrefix = "session:"

type Options struct {
	Addr     string
	Password string
	DB       int
}

type SessionStore struct {
	client *redis.Client
}

// New connects to Redis and pings it, so a bad address fails at startup
// rather than on the first login.
func New(ctx context.Context, opts Options) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: pinging %s: %w", opts.Addr, err)
	}
	return &SessionStore{client: client}, nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) CreateSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperror.ValidationFailed("expiresAt", "session already expired")
	}

	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: encoding session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.ID, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: storing session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	value, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, apperror.NotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis: loading session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(value, &session); err != nil {
		return nil, fmt.Errorf("redis: decoding session: %w", err)
	}
	// Key expiry has millisecond granularity; re-check against the record.
	if session.Expired(time.Now()) {
		return nil, apperror.NotFound("session", id)
	}
	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: keys carry their own TTL.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}
