package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSessionNotFound is returned when no session is stored under a key.
var ErrSessionNotFound = errors.New("session not found")

// querier is the subset of *pgxpool.Pool the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists platform sessions in PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

// Save inserts or replaces the session stored under key.
func (r *Repository) Save(ctx context.Context, key string, s *Session) error {
	identity, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO sessions (id, user_id, access_token, refresh_token, expires_at, identity)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = EXCLUDED.user_id,
		   access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   expires_at = EXCLUDED.expires_at,
		   identity = EXCLUDED.identity,
		   updated_at = NOW()`,
		key, s.User.ID, s.AccessToken, s.RefreshToken, s.ExpiresAt, identity,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the session stored under key.
func (r *Repository) Load(ctx context.Context, key string) (*Session, error) {
	s := &Session{}
	var identity []byte
	err := r.db.QueryRow(ctx,
		`SELECT access_token, refresh_token, expires_at, identity
		 FROM sessions WHERE id = $1`,
		key,
	).Scan(&s.AccessToken, &s.RefreshToken, &s.ExpiresAt, &identity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(identity, &s.User); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return s, nil
}

// Delete removes the session stored under key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Save(_ context.Context, key string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.User = *s.User.Clone()
	m.sessions[key] = cp
	return nil
}

func (m *MemoryStore) Load(_ context.Context, key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}
