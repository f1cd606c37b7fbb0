package session

import (
	"context"
	"sync"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
)

// fakeClient is an in-memory IdentityClient that emits events like the real one.
type fakeClient struct {
	mu       sync.Mutex
	session  *auth.Session
	subs     map[int]func(auth.Change)
	next     int
	closed   bool
	users    map[string]string // email -> password
	confirm  bool              // sign-up returns a session
	getErr   error
	signOuts int
	updates  []map[string]any
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		subs:  make(map[int]func(auth.Change)),
		users: map[string]string{"ada@example.com": "secret"},
	}
}

func (f *fakeClient) emit(ev auth.Event, id *auth.Identity) {
	f.mu.Lock()
	fns := make([]func(auth.Change), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(auth.Change{Event: ev, Identity: id.Clone()})
	}
}

func (f *fakeClient) GetUser(context.Context) (*auth.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.session == nil {
		return nil, nil
	}
	return f.session.User.Clone(), nil
}

func (f *fakeClient) SignInWithPassword(_ context.Context, email, password string) (*auth.Session, error) {
	f.mu.Lock()
	if f.users[email] != password {
		f.mu.Unlock()
		return nil, apperr.New(apperr.Auth, "invalid login credentials")
	}
	s := &auth.Session{AccessToken: "at-" + email, User: auth.Identity{ID: "uid-" + email, Email: email}}
	f.session = s
	f.mu.Unlock()

	f.emit(auth.EventSignedIn, &s.User)
	return s, nil
}

func (f *fakeClient) SignUp(_ context.Context, email, password string) (*auth.Identity, *auth.Session, error) {
	f.mu.Lock()
	if _, taken := f.users[email]; taken {
		f.mu.Unlock()
		return nil, nil, apperr.New(apperr.Auth, "user already registered")
	}
	f.users[email] = password
	id := &auth.Identity{ID: "uid-" + email, Email: email}
	if !f.confirm {
		f.mu.Unlock()
		return id, nil, nil
	}
	s := &auth.Session{AccessToken: "at-" + email, User: *id}
	f.session = s
	f.mu.Unlock()

	f.emit(auth.EventSignedIn, id)
	return id, s, nil
}

func (f *fakeClient) SignOut(context.Context) error {
	f.mu.Lock()
	f.session = nil
	f.signOuts++
	f.mu.Unlock()

	f.emit(auth.EventSignedOut, nil)
	return nil
}

func (f *fakeClient) UpdateUser(_ context.Context, attrs map[string]any) (*auth.Identity, error) {
	f.mu.Lock()
	if f.session == nil {
		f.mu.Unlock()
		return nil, auth.ErrNoSession
	}
	f.updates = append(f.updates, attrs)
	if f.session.User.Attributes == nil {
		f.session.User.Attributes = map[string]any{}
	}
	for k, v := range attrs {
		f.session.User.Attributes[k] = v
	}
	id := f.session.User.Clone()
	f.mu.Unlock()

	f.emit(auth.EventUserUpdated, id)
	return id, nil
}

func (f *fakeClient) OnIdentityChange(fn func(auth.Change)) *auth.Subscription {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	return auth.NewSubscription(func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	})
}

func (f *fakeClient) Session() *auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil
	}
	s := *f.session
	return &s
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeClient) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
