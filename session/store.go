// Package session persists the dashboard's authenticated state: the
// upstream tokens and the cached user profile.
package session

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ray-remotestate/cafedash/database"
	"github.com/ray-remotestate/cafedash/database/dbhelper"
	"github.com/ray-remotestate/cafedash/models"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Create(ctx context.Context, tokens models.Tokens, user *models.User) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SaveTokens(ctx context.Context, id uuid.UUID, tokens models.Tokens) error
	SaveUser(ctx context.Context, id uuid.UUID, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]models.Session)}
}

func (m *MemoryStore) Create(_ context.Context, tokens models.Tokens, user *models.User) (*models.Session, error) {
	now := time.Now()
	sess := models.Session{
		ID:           uuid.New(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		User:         user,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return &sess, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (m *MemoryStore) SaveTokens(_ context.Context, id uuid.UUID, tokens models.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.AccessToken = tokens.AccessToken
	sess.RefreshToken = tokens.RefreshToken
	sess.TokenType = tokens.TokenType
	sess.UpdatedAt = time.Now()
	m.sessions[id] = sess
	return nil
}

func (m *MemoryStore) SaveUser(_ context.Context, id uuid.UUID, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.User = user
	sess.UpdatedAt = time.Now()
	m.sessions[id] = sess
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// PostgresStore keeps sessions in the dashboard_sessions table.
type PostgresStore struct{}

func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

func (PostgresStore) Create(_ context.Context, tokens models.Tokens, user *models.User) (*models.Session, error) {
	var id uuid.UUID
	err := database.Tx(func(tx *sql.Tx) error {
		var err error
		id, err = dbhelper.CreateSession(tx, tokens)
		if err != nil {
			return err
		}
		if user == nil {
			return nil
		}
		return dbhelper.SaveSessionUser(tx, id, user)
	})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &models.Session{
		ID:           id,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		User:         user,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (PostgresStore) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	sess, err := dbhelper.GetSession(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

func (PostgresStore) SaveTokens(_ context.Context, id uuid.UUID, tokens models.Tokens) error {
	err := dbhelper.SaveSessionTokens(id, tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (PostgresStore) SaveUser(_ context.Context, id uuid.UUID, user *models.User) error {
	err := dbhelper.UpdateSessionUser(id, user)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (PostgresStore) Delete(_ context.Context, id uuid.UUID) error {
	return dbhelper.ArchiveSession(id)
}
