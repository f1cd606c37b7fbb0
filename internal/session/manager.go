package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
)

// ErrExpired is returned when a BFF token names a session that no longer exists.
var ErrExpired = apperr.New(apperr.Auth, "session expired, please sign in again")

// ClientFactory builds the identity client for session sid. restored is the
// persisted platform session, or nil for a fresh session.
type ClientFactory func(ctx context.Context, sid string, restored *auth.Session) (IdentityClient, error)

// PlatformFactory builds identity clients from the public platform handle,
// persisting sessions to store under the BFF session id.
func PlatformFactory(src platform.Source, store auth.SessionStore) ClientFactory {
	return func(ctx context.Context, sid string, restored *auth.Session) (IdentityClient, error) {
		pc, err := src.Get(ctx)
		if err != nil {
			return nil, err
		}
		c := pc.NewAuth(platform.SessionOptions{Store: store, StoreKey: sid})
		if restored != nil {
			c.Restore(restored)
		}
		return c, nil
	}
}

type entry struct {
	tracker  *Tracker
	lastSeen time.Time
}

// Manager keeps one Tracker per BFF session.
type Manager struct {
	factory ClientFactory
	store   auth.SessionStore
	log     logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	trackers map[string]*entry
}

// NewManager creates a Manager. store may be nil, in which case sessions only
// live as long as the process.
func NewManager(factory ClientFactory, store auth.SessionStore, log logging.Logger) *Manager {
	return &Manager{
		factory:  factory,
		store:    store,
		log:      log,
		now:      time.Now,
		trackers: make(map[string]*entry),
	}
}

// Create starts a tracker for a new session.
func (m *Manager) Create(ctx context.Context) (*Tracker, error) {
	sid := uuid.NewString()
	client, err := m.factory(ctx, sid, nil)
	if err != nil {
		return nil, err
	}
	t := NewTracker(sid, client, m.log)
	t.Start(ctx)

	m.mu.Lock()
	m.trackers[sid] = &entry{tracker: t, lastSeen: m.now()}
	m.mu.Unlock()
	return t, nil
}

// Get returns the tracker for sid, rehydrating it from the store after a restart.
func (m *Manager) Get(ctx context.Context, sid string) (*Tracker, error) {
	m.mu.Lock()
	if e, ok := m.trackers[sid]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.tracker, nil
	}
	m.mu.Unlock()

	if m.store == nil {
		return nil, ErrExpired
	}
	saved, err := m.store.Load(ctx, sid)
	if errors.Is(err, auth.ErrSessionNotFound) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "load session", err)
	}

	client, err := m.factory(ctx, sid, saved)
	if err != nil {
		return nil, err
	}
	t := NewTracker(sid, client, m.log)
	t.Start(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have rehydrated the same session meanwhile.
	if e, ok := m.trackers[sid]; ok {
		e.lastSeen = m.now()
		go t.Close()
		return e.tracker, nil
	}
	m.trackers[sid] = &entry{tracker: t, lastSeen: m.now()}
	m.log.Info(ctx, "session rehydrated", "session", sid)
	return t, nil
}

// Drop closes the tracker for sid and forgets its persisted session.
func (m *Manager) Drop(ctx context.Context, sid string) {
	m.mu.Lock()
	e, ok := m.trackers[sid]
	delete(m.trackers, sid)
	m.mu.Unlock()

	if ok {
		e.tracker.Close()
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, sid); err != nil {
			m.log.Warn(ctx, "failed to delete persisted session", "session", sid, "error", err)
		}
	}
}

// Sweep closes trackers idle for longer than maxIdle. Persisted sessions are
// kept so the next request can rehydrate them.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Tracker
	for sid, e := range m.trackers {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.tracker)
			delete(m.trackers, sid)
		}
	}
	m.mu.Unlock()

	for _, t := range idle {
		t.Close()
	}
	return len(idle)
}

// Len returns the number of live trackers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackers)
}

// Close closes every tracker.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.trackers
	m.trackers = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.tracker.Close()
	}
}
