// Package sqlite provides a session store backed by database/sql.
//
// It expects an *sql.DB using a SQLite driver (for example
// "modernc.org/sqlite"). The caller imports the driver:
//
//	import _ "modernc.org/sqlite"
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Store implements ports.SessionStore on a SQLite database. Variables are
// stored as a JSON blob; one row per session, unique per (user, contact).
type Store struct {
	db *sql.DB
}

var _ ports.SessionStore = (*Store)(nil)

// NewStore initializes the required schema and returns a new Store.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init sessions schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			contact TEXT NOT NULL,
			flow_id TEXT NOT NULL,
			current_node_id TEXT NOT NULL,
			variables BLOB,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, contact)
		);`,
	)
	return err
}

// Get retrieves the active session for a (user, contact) pair.
func (s *Store) Get(ctx context.Context, userID, contact string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, contact, flow_id, current_node_id, variables, created_at, updated_at
		FROM sessions WHERE user_id = ? AND contact = ?`,
		userID, contact,
	)
	return scanSession(row)
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

	vars, err := json.Marshal(stored.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, contact, flow_id, current_node_id, variables, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.UserID, stored.Contact, stored.FlowID,
		stored.CurrentNodeID, vars, stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return &stored, nil
}

// Update applies a partial patch to the session addressed by ID.
func (s *Store) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, contact, flow_id, current_node_id, variables, created_at, updated_at
		FROM sessions WHERE id = ?`,
		sessionID,
	)
	sess, err := scanSession(row)
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

	vars, err := json.Marshal(sess.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sessions SET current_node_id = ?, variables = ?, updated_at = ? WHERE id = ?`,
		sess.CurrentNodeID, vars, sess.UpdatedAt, sess.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return sess, nil
}

// Delete removes the session row. Absent is a no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var sess domain.Session
	var vars []byte
	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Contact, &sess.FlowID,
		&sess.CurrentNodeID, &vars, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &sess.Variables); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
		}
	}
	return &sess, nil
}
