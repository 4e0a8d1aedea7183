package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

const minSessionTTL = time.Minute

// SessionStore persists edge sessions as JSON under session:<id>, expiring
// with the backend credential so redis never outlives a token.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// storedSession is the wire shape. AccessToken is json:"-" on the domain
// type to keep it out of API responses, so it is carried explicitly here.
type storedSession struct {
	Session domain.Session `json:"session"`
	Token   string         `json:"token"`
}

// Save stores the session with the given TTL. TTLs at or below zero are
// clamped to a small positive floor so a session with a malformed expiry
// still self-destructs instead of living forever.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = minSessionTTL
	}
	payload, err := json.Marshal(storedSession{Session: *sess, Token: sess.AccessToken})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find returns the session for id, or domain.ErrSessionNotFound.
func (s *SessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess := stored.Session
	sess.AccessToken = stored.Token
	return &sess, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}
