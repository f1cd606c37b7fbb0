package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/logging"
)

// refreshMargin is how long before expiry the access token is refreshed.
const refreshMargin = time.Minute

// ErrNoSession is returned by calls that need a signed-in user.
var ErrNoSession = apperr.New(apperr.Auth, "not signed in")

// ErrClosed is returned when a call completes after the client was closed.
// Its result is discarded and never persisted.
var ErrClosed = apperr.New(apperr.Auth, "session closed")

// SessionStore persists platform sessions keyed by the BFF session id.
type SessionStore interface {
	Save(ctx context.Context, key string, s *Session) error
	Load(ctx context.Context, key string) (*Session, error)
	Delete(ctx context.Context, key string) error
}

// Options configures a Client.
type Options struct {
	BaseURL    string // platform URL, without the /auth/v1 suffix
	APIKey     string
	HTTPClient *http.Client

	// AutoRefresh refreshes the access token in the background before it expires.
	AutoRefresh bool
	// PersistSession saves every session change to Store under StoreKey.
	PersistSession bool
	Store          SessionStore
	StoreKey       string

	Logger logging.Logger
	Now    func() time.Time
}

// Client talks to the platform identity service on behalf of a single user
// session. Requests go through the GoTrue SDK; the client adds the session
// lifecycle around it.
type Client struct {
	opts Options

	mu      sync.Mutex
	session *Session
	subs    map[int]func(Change)
	nextSub int
	timer   *time.Timer
	closed  bool

	// refreshMu serializes token refreshes so a rotated refresh token is never reused.
	refreshMu sync.Mutex
	// persistMu is held from the closed check until the store write finishes.
	persistMu sync.Mutex
}

// NewClient creates a Client with no session.
func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{opts: opts, subs: make(map[int]func(Change))}
}

// Restore installs a previously persisted session without emitting events.
// An expired access token is refreshed on the next GetUser.
func (c *Client) Restore(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.session = s
	c.scheduleRefreshLocked()
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Subscription is a registered identity-change listener.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps cancel so other identity sources can hand out subscriptions.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// OnIdentityChange registers fn for every identity transition.
func (c *Client) OnIdentityChange(fn func(Change)) *Subscription {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return &Subscription{cancel: func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}}
}

// GetUser fetches the current identity. It returns nil, nil when no one is signed in.
// An access token that is expired, or that the platform rejects, is refreshed
// once before giving up.
func (c *Client) GetUser(ctx context.Context) (*Identity, error) {
	if err := c.refreshWhen(ctx, c.due); err != nil {
		return nil, err
	}
	token := c.accessToken()
	if token == "" {
		return nil, nil
	}

	res, err := c.api(ctx, token).GetUser()
	if hasStatus(err, http.StatusUnauthorized) {
		stale := func(s *Session) bool { return s.AccessToken == token }
		if rerr := c.refreshWhen(ctx, stale); rerr != nil {
			return nil, rerr
		}
		if next := c.accessToken(); next != "" && next != token {
			res, err = c.api(ctx, next).GetUser()
		}
	}
	if err != nil {
		return nil, authError("get user", err)
	}
	id := identityOf(res.User)
	return &id, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	res, err := c.api(ctx, "").SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, authError("sign in", err)
	}

	s := sessionOf(res.Session, c.opts.Now())
	if !c.setSession(ctx, s, EventSignedIn) {
		return nil, ErrClosed
	}
	return s, nil
}

// SignUp registers credentials. When the platform requires email
// verification no session is returned and the user must confirm before signing in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Identity, *Session, error) {
	res, err := c.api(ctx, "").Signup(types.SignupRequest{Email: email, Password: password})
	if err != nil {
		return nil, nil, authError("sign up", err)
	}

	user := res.User
	if res.AccessToken == "" {
		id := identityOf(user)
		return &id, nil, nil
	}

	if user.ID == uuid.Nil {
		// Auto-confirmed signups nest the user inside the session body.
		u, err := c.api(ctx, res.AccessToken).GetUser()
		if err != nil {
			return nil, nil, authError("sign up", err)
		}
		user = u.User
	}
	s := sessionOf(types.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		User:         user,
	}, c.opts.Now())
	if !c.setSession(ctx, s, EventSignedIn) {
		return nil, nil, ErrClosed
	}
	id := s.User
	return &id, s, nil
}

// SignOut revokes the session on the platform and clears it locally. A session
// the platform already considers gone is cleared without error.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.accessToken()
	if token != "" {
		err := c.api(ctx, token).Logout()
		if err != nil && !hasStatus(err, http.StatusUnauthorized) && !hasStatus(err, http.StatusNotFound) {
			return authError("sign out", err)
		}
	}
	c.setSession(ctx, nil, EventSignedOut)
	return nil
}

// UpdateUser merges attrs into the identity's attribute map on the platform.
func (c *Client) UpdateUser(ctx context.Context, attrs map[string]any) (*Identity, error) {
	token := c.accessToken()
	if token == "" {
		return nil, ErrNoSession
	}

	res, err := c.api(ctx, token).UpdateUser(types.UpdateUserRequest{Data: attrs})
	if err != nil {
		return nil, authError("update user", err)
	}
	id := identityOf(res.User)

	c.mu.Lock()
	var s *Session
	if c.session != nil {
		cp := *c.session
		cp.User = id
		s = &cp
	}
	c.mu.Unlock()
	if s != nil {
		c.setSession(ctx, s, EventUserUpdated)
	}
	return &id, nil
}

// Refresh exchanges the refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

// Close stops background refresh and drops all subscribers. It waits for a
// store write already in progress, and later results are discarded.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.subs = make(map[int]func(Change))
	c.mu.Unlock()

	c.persistMu.Lock()
	c.persistMu.Unlock()
}

// refreshLocked must be called with refreshMu held.
func (c *Client) refreshLocked(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	var refresh string
	if c.session != nil {
		refresh = c.session.RefreshToken
	}
	c.mu.Unlock()
	if refresh == "" {
		return nil, ErrNoSession
	}

	res, err := c.api(ctx, "").RefreshToken(refresh)
	if err != nil {
		return nil, authError("refresh token", err)
	}
	s := sessionOf(res.Session, c.opts.Now())
	if !c.setSession(ctx, s, EventTokenRefreshed) {
		return nil, ErrClosed
	}
	return s, nil
}

// refreshWhen refreshes the session if need reports true for it once any
// concurrent refresh has finished. Sessions without a refresh token are left alone.
func (c *Client) refreshWhen(ctx context.Context, need func(*Session) bool) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	ok := c.session != nil && c.session.RefreshToken != "" && need(c.session)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	_, err := c.refreshLocked(ctx)
	return err
}

// due reports whether s is expired or inside the refresh margin.
func (c *Client) due(s *Session) bool {
	return !c.opts.Now().Before(s.ExpiresAt.Add(-refreshMargin))
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

// setSession stores s (nil clears it), persists it, and notifies subscribers.
// It reports false, and does nothing, once the client is closed.
func (c *Client) setSession(ctx context.Context, s *Session, ev Event) bool {
	c.persistMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.persistMu.Unlock()
		return false
	}
	c.session = s
	c.scheduleRefreshLocked()
	listeners := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	c.persist(ctx, s)
	c.persistMu.Unlock()

	change := Change{Event: ev}
	if s != nil {
		change.Identity = s.User.Clone()
	}
	for _, fn := range listeners {
		fn(change)
	}
	return true
}

func (c *Client) persist(ctx context.Context, s *Session) {
	if !c.opts.PersistSession || c.opts.Store == nil || c.opts.StoreKey == "" {
		return
	}
	var err error
	if s == nil {
		err = c.opts.Store.Delete(ctx, c.opts.StoreKey)
	} else {
		err = c.opts.Store.Save(ctx, c.opts.StoreKey, s)
	}
	if err != nil {
		c.opts.Logger.Warn(ctx, "persist session failed", "session", c.opts.StoreKey, "error", err)
	}
}

func (c *Client) scheduleRefreshLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.opts.AutoRefresh || c.closed || c.session == nil || c.session.RefreshToken == "" {
		return
	}

	wait := c.session.ExpiresAt.Sub(c.opts.Now()) - refreshMargin
	if wait < 0 {
		wait = 0
	}
	timeout := c.opts.HTTPClient.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.timer = time.AfterFunc(wait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.refreshWhen(ctx, c.due); err != nil && !errors.Is(err, ErrClosed) {
			c.opts.Logger.Warn(ctx, "token refresh failed", "session", c.opts.StoreKey, "error", err)
		}
	})
}

// api returns an SDK client bound to ctx. token, when empty, falls back to the API key.
func (c *Client) api(ctx context.Context, token string) gotrue.Client {
	next := c.opts.HTTPClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc := http.Client{
		Timeout:   c.opts.HTTPClient.Timeout,
		Transport: contextTransport{ctx: ctx, next: next},
	}
	api := gotrue.New("", c.opts.APIKey).
		WithCustomGoTrueURL(c.opts.BaseURL + "/auth/v1").
		WithClient(hc)
	if token != "" {
		api = api.WithToken(token)
	}
	return api
}

// contextTransport attaches ctx to requests the SDK builds without one.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

// statusError is a non-2xx response from the identity service.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("identity service returned %d", e.status)
	}
	return fmt.Sprintf("identity service returned %d: %s", e.status, e.message)
}

// sdkStatus matches the SDK's error text for non-2xx responses.
var sdkStatus = regexp.MustCompile(`(?s)status code (\d{3})(?::\s*(.*))?`)

// authError classifies an SDK error. Non-2xx responses keep their status and
// the platform's message; anything else is a transport failure.
func authError(op string, err error) error {
	m := sdkStatus.FindStringSubmatch(err.Error())
	if m == nil {
		return &apperr.Error{Kind: apperr.Auth, Op: op, Message: "identity service could not be reached", Err: err}
	}
	status, _ := strconv.Atoi(m[1])
	se := &statusError{status: status, message: decodeError([]byte(m[2]))}
	return &apperr.Error{Kind: apperr.Auth, Message: se.message, Err: se}
}

func hasStatus(err error, status int) bool {
	if err == nil {
		return false
	}
	m := sdkStatus.FindStringSubmatch(err.Error())
	return m != nil && m[1] == strconv.Itoa(status)
}

// decodeError extracts the human message from a GoTrue error body, which comes
// in several shapes across versions. It returns "" when body carries none.
func decodeError(body []byte) string {
	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, m := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

func identityOf(u types.User) Identity {
	id := Identity{
		Email:        u.Email,
		LastSignInAt: u.LastSignInAt,
		Attributes:   u.UserMetadata,
	}
	if u.ID != uuid.Nil {
		id.ID = u.ID.String()
	}
	return id
}

func sessionOf(t types.Session, now time.Time) *Session {
	exp := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	if t.ExpiresAt > 0 {
		exp = time.Unix(t.ExpiresAt, 0)
	}
	return &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    exp,
		User:         identityOf(t.User),
	}
}
