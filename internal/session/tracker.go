// Package session tracks who is signed in for each browser session and owns
// every piece of state derived from that identity: the profile image, the
// active page, and the gallery overlay.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/nav"
)

// IdentityClient is the part of *auth.Client the tracker drives.
type IdentityClient interface {
	GetUser(ctx context.Context) (*auth.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Identity, *auth.Session, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, attrs map[string]any) (*auth.Identity, error)
	OnIdentityChange(fn func(auth.Change)) *auth.Subscription
	Session() *auth.Session
	Close()
}

// SignUpResult reports whether the new account can be used right away.
type SignUpResult struct {
	Identity *auth.Identity
	// NeedsVerification is true when the platform sent a confirmation email
	// and no session exists yet.
	NeedsVerification bool
}

// Tracker observes one user session.
type Tracker struct {
	id     string
	client IdentityClient
	log    logging.Logger
	router *nav.Router

	mu          sync.RWMutex
	identity    *auth.Identity
	profileURL  string
	profilePath string
	overlay     string
	generation  uint64
	inflight    map[string]struct{}
	sub         *auth.Subscription
	closed      bool
}

// NewTracker creates a tracker for the BFF session id. Call Start before use.
func NewTracker(id string, client IdentityClient, log logging.Logger) *Tracker {
	return &Tracker{
		id:       id,
		client:   client,
		log:      log.With("session", id),
		router:   nav.NewRouter(),
		inflight: make(map[string]struct{}),
	}
}

// ID returns the BFF session id.
func (t *Tracker) ID() string { return t.id }

// Start subscribes to identity changes and queries the current identity once.
// Both paths go through setIdentity. A failed query is logged and leaves the
// tracker signed out.
func (t *Tracker) Start(ctx context.Context) {
	sub := t.client.OnIdentityChange(func(ch auth.Change) {
		t.setIdentity(ch.Identity)
	})

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	t.sub = sub
	t.mu.Unlock()

	id, err := t.client.GetUser(ctx)
	if err != nil {
		t.log.Warn(ctx, "initial identity query failed", "error", err)
		return
	}
	if id != nil {
		t.setIdentity(id)
	}
}

// Reload re-queries the identity from the platform.
func (t *Tracker) Reload(ctx context.Context) (*auth.Identity, error) {
	id, err := t.client.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	t.setIdentity(id)
	return t.Identity(), nil
}

// Close releases the subscription and the identity client. Results of calls
// still in flight are discarded.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.generation++
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()

	sub.Unsubscribe()
	t.client.Close()
}

// setIdentity is the single writer of the current identity.
func (t *Tracker) setIdentity(id *auth.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if id == nil || (t.identity != nil && t.identity.ID != id.ID) {
		t.clearLocked()
	}
	if id == nil {
		return
	}

	t.identity = id.Clone()
	if u := id.ProfileURL(); u != "" {
		t.profileURL = u
		t.profilePath = id.ProfileFilePath()
	}
}

// clearLocked drops everything derived from the identity.
func (t *Tracker) clearLocked() {
	t.identity = nil
	t.profileURL = ""
	t.profilePath = ""
	t.overlay = ""
	t.generation++
	t.router.Reset()
}

// Identity returns a copy of the current identity, or nil.
func (t *Tracker) Identity() *auth.Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.identity.Clone()
}

// OwnerID returns the signed-in identity's id, or "".
func (t *Tracker) OwnerID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.identity == nil {
		return ""
	}
	return t.identity.ID
}

// AccessToken returns the platform access token for calls made on the user's behalf.
func (t *Tracker) AccessToken() string {
	s := t.client.Session()
	if s == nil {
		return ""
	}
	return s.AccessToken
}

// SignIn authenticates with email and password.
func (t *Tracker) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if _, err := t.client.SignInWithPassword(ctx, email, password); err != nil {
		return nil, err
	}
	return t.Identity(), nil
}

// SignUp registers a new account.
func (t *Tracker) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	id, s, err := t.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &SignUpResult{Identity: id, NeedsVerification: s == nil}, nil
}

// SignOut ends the platform session. On success the identity, the profile
// image, the overlay, and the page are all reset, whichever page was active.
func (t *Tracker) SignOut(ctx context.Context) error {
	if err := t.client.SignOut(ctx); err != nil {
		return err
	}
	// The signed_out event already cleared state; this covers clients that do not emit.
	t.setIdentity(nil)
	return nil
}

// UpdateAttributes writes attrs into the identity's attribute map on the platform.
func (t *Tracker) UpdateAttributes(ctx context.Context, attrs map[string]any) error {
	_, err := t.client.UpdateUser(ctx, attrs)
	return err
}

// Generation changes on every sign-out, identity switch, and Close. Capture it
// before a remote call and hand it back to a setter afterwards.
func (t *Tracker) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// SetProfile records the profile image unless the session moved on since gen.
func (t *Tracker) SetProfile(gen uint64, url, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || gen != t.generation {
		return false
	}
	t.profileURL = url
	t.profilePath = path
	return true
}

// ProfileURL returns the current profile image URL.
func (t *Tracker) ProfileURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.profileURL
}

// ProfilePath returns the storage key of the current profile image.
func (t *Tracker) ProfilePath() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.profilePath
}

// Router returns the session's navigation router.
func (t *Tracker) Router() *nav.Router { return t.router }

// OpenOverlay selects name in the gallery overlay.
func (t *Tracker) OpenOverlay(name string) {
	t.mu.Lock()
	t.overlay = name
	t.mu.Unlock()
}

// CloseOverlay clears the gallery overlay.
func (t *Tracker) CloseOverlay() {
	t.mu.Lock()
	t.overlay = ""
	t.mu.Unlock()
}

// CloseOverlayIf clears the overlay only when it shows name.
func (t *Tracker) CloseOverlayIf(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.overlay != name {
		return false
	}
	t.overlay = ""
	return true
}

// Overlay returns the name open in the gallery overlay, or "".
func (t *Tracker) Overlay() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.overlay
}

// Begin marks action as running. It returns false when the same action is
// already in flight for this session; otherwise release must be called when done.
func (t *Tracker) Begin(action string) (release func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inflight[action]; busy {
		return nil, false
	}
	t.inflight[action] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.inflight, action)
			t.mu.Unlock()
		})
	}, true
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return apperr.New(apperr.Validation, "a valid email is required")
	}
	if password == "" {
		return apperr.New(apperr.Validation, "password is required")
	}
	return nil
}
