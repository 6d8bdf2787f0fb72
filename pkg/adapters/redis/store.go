// Package redis provides a Redis-backed session store and distributed
// locker for multi-instance deployments.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Store implements ports.SessionStore using Redis.
//
// Sessions are stored as JSON under a (user, contact) key; a second key maps
// the session ID back to that pair so Update and Delete can address a session
// by ID alone. Read-modify-write on Update is safe because the engine
// serializes all work per (user, contact) above the store.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.SessionStore = (*Store)(nil)

type Option func(*Store)

// WithTTL sets an expiration for sessions. Zero (the default) means sessions
// never expire on their own.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for all store keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "tendril:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) pairKey(userID, contact string) string {
	return s.prefix + "session:" + userID + "/" + contact
}

func (s *Store) idKey(sessionID string) string {
	return s.prefix + "id:" + sessionID
}

// Get retrieves the active session for a (user, contact) pair.
func (s *Store) Get(ctx context.Context, userID, contact string) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.pairKey(userID, contact)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Create persists a new session, assigning ID and timestamps when unset.
func (s *Store) Create(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	stored := *sess
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.Variables == nil {
		stored.Variables = make(map[string]any)
	}

	if err := s.write(ctx, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update applies a partial patch to the session addressed by ID.
func (s *Store) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if patch.CurrentNodeID != nil {
		sess.CurrentNodeID = *patch.CurrentNodeID
	}
	if patch.Variables != nil {
		sess.Variables = patch.Variables
	}
	sess.UpdatedAt = time.Now()

	if err := s.write(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes the session and its ID index entry. Absent is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.pairKey(sess.UserID, sess.Contact))
	pipe.Del(ctx, s.idKey(sessionID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Close closes the underlying redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// load resolves a session ID through the index and fetches its row.
func (s *Store) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	pair, err := s.client.Get(ctx, s.idKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to resolve session id: %w", err)
	}

	val, err := s.client.Get(ctx, pair).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// write stores the session JSON and its ID index entry in one pipeline.
func (s *Store) write(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pair := s.pairKey(sess.UserID, sess.Contact)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, pair, data, s.ttl)
	pipe.Set(ctx, s.idKey(sess.ID), pair, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}
