package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/storage"
	"github.com/navidved/vitrine/internal/upload"
)

// stubClient is a signed-in IdentityClient that applies attribute updates locally.
type stubClient struct {
	mu  sync.Mutex
	id  auth.Identity
	sub func(auth.Change)
}

func (s *stubClient) GetUser(context.Context) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id.Clone(), nil
}
func (s *stubClient) SignInWithPassword(context.Context, string, string) (*auth.Session, error) {
	return nil, nil
}
func (s *stubClient) SignUp(context.Context, string, string) (*auth.Identity, *auth.Session, error) {
	return nil, nil, nil
}
func (s *stubClient) SignOut(context.Context) error { return nil }
func (s *stubClient) UpdateUser(_ context.Context, attrs map[string]any) (*auth.Identity, error) {
	s.mu.Lock()
	if s.id.Attributes == nil {
		s.id.Attributes = map[string]any{}
	}
	for k, v := range attrs {
		s.id.Attributes[k] = v
	}
	id := s.id.Clone()
	fn := s.sub
	s.mu.Unlock()
	if fn != nil {
		fn(auth.Change{Event: auth.EventUserUpdated, Identity: id})
	}
	return id, nil
}
func (s *stubClient) OnIdentityChange(fn func(auth.Change)) *auth.Subscription {
	s.mu.Lock()
	s.sub = fn
	s.mu.Unlock()
	return auth.NewSubscription(func() {
		s.mu.Lock()
		s.sub = nil
		s.mu.Unlock()
	})
}
func (s *stubClient) Session() *auth.Session { return &auth.Session{AccessToken: "at"} }
func (s *stubClient) Close()                 {}

func setup(t *testing.T) (*Handler, *session.Tracker, *stubClient, *storage.MemoryStorage) {
	t.Helper()
	mem := storage.NewMemoryStorage("http://cdn")
	require.NoError(t, mem.EnsureBucket(context.Background(), upload.AvatarsBucket, true))
	src := platform.Static{Client: &platform.Client{Storage: mem}}
	h := NewHandler(NewService(upload.NewCoordinator(src, nil, logging.Discard())))

	c := &stubClient{id: auth.Identity{ID: "u1", Email: "ada@example.com"}}
	tr := session.NewTracker("sid", c, logging.Discard())
	tr.Start(context.Background())
	t.Cleanup(tr.Close)
	return h, tr, c, mem
}

func avatarRequest(t *testing.T, contentType string, size int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="me.jpg"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(make([]byte, size)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(fn http.HandlerFunc, req *http.Request, tr *session.Tracker) *httptest.ResponseRecorder {
	if tr != nil {
		req = req.WithContext(session.WithTracker(req.Context(), tr))
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestGetMe(t *testing.T) {
	h, tr, _, _ := setup(t)

	rec := serve(h.GetMe, httptest.NewRequest(http.MethodGet, "/users/me", nil), tr)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data Profile `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "ada@example.com", env.Data.Identity.Email)
	assert.Empty(t, env.Data.ProfileURL)
}

func TestGetMe_Unauthenticated(t *testing.T) {
	h, _, _, _ := setup(t)
	rec := serve(h.GetMe, httptest.NewRequest(http.MethodGet, "/users/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAvatar_PersistsProfile(t *testing.T) {
	h, tr, c, _ := setup(t)

	rec := serve(h.UploadAvatar, avatarRequest(t, "image/jpeg", 2<<20), tr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data upload.Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Data.MetadataSynced)
	assert.Equal(t, env.Data.PublicURL, tr.ProfileURL())
	assert.Equal(t, env.Data.Key, tr.ProfilePath())

	id, _ := c.GetUser(context.Background())
	assert.Equal(t, env.Data.PublicURL, id.ProfileURL())

	me := serve(h.GetMe, httptest.NewRequest(http.MethodGet, "/users/me", nil), tr)
	assert.Contains(t, me.Body.String(), env.Data.PublicURL)
}

func TestUploadAvatar_TooLarge(t *testing.T) {
	h, tr, _, mem := setup(t)

	rec := serve(h.UploadAvatar, avatarRequest(t, "image/png", 6<<20), tr)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "less than 5MB")
	assert.Empty(t, mem.Calls())
}
