package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/nav"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

func newTestHandler() (*Handler, *Manager, *auth.TokenIssuer, *recordingFactory) {
	f := newRecordingFactory()
	m := NewManager(f.build, nil, logging.Discard())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewHandler(m, tokens, logging.Discard()), m, tokens, f
}

func doJSON(t *testing.T, h http.HandlerFunc, method, body string, tr *Tracker) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if tr != nil {
		req = req.WithContext(WithTracker(req.Context(), tr))
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestHandler_SignInIssuesToken(t *testing.T) {
	h, m, tokens, _ := newTestHandler()

	rec, env := doJSON(t, h.SignIn, http.MethodPost, `{"email":"ada@example.com","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var data signInData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	claims, err := tokens.Parse(data.Token)
	require.NoError(t, err)
	assert.Equal(t, "uid-ada@example.com", claims.UserID)
	assert.Equal(t, nav.Profile, data.Session.Page)

	_, err = m.Get(context.Background(), claims.SessionID)
	assert.NoError(t, err)
}

func TestHandler_SignInBadCredentialsDropsTracker(t *testing.T) {
	h, m, _, _ := newTestHandler()

	rec, env := doJSON(t, h.SignIn, http.MethodPost, `{"email":"ada@example.com","password":"nope"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid login credentials", env.Error)
	assert.Equal(t, 0, m.Len())
}

func TestHandler_SignInMalformedBody(t *testing.T) {
	h, _, _, _ := newTestHandler()

	rec, _ := doJSON(t, h.SignIn, http.MethodPost, `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SignUpNeedsVerification(t *testing.T) {
	h, m, _, _ := newTestHandler()

	rec, env := doJSON(t, h.SignUp, http.MethodPost, `{"email":"bob@example.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var data signUpData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.NeedsVerification)
	assert.Empty(t, data.Token)
	assert.Equal(t, 0, m.Len())
}

func TestHandler_SetPageClosesOverlayOnLeave(t *testing.T) {
	h, m, _, _ := newTestHandler()
	tr, err := m.Create(context.Background())
	require.NoError(t, err)

	tr.Router().Go("gallery")
	tr.OpenOverlay("a.png")

	_, env := doJSON(t, h.SetPage, http.MethodPut, `{"page":"storage"}`, tr)
	var v View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, nav.Storage, v.Page)
	assert.Empty(t, v.Overlay)

	_, env = doJSON(t, h.SetPage, http.MethodPut, `{"page":"settings"}`, tr)
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, nav.Profile, v.Page)
}

func TestHandler_SignOutResetsAndDrops(t *testing.T) {
	h, m, _, _ := newTestHandler()
	tr, err := m.Create(context.Background())
	require.NoError(t, err)
	_, err = tr.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	tr.Router().Go("gallery")

	rec, env := doJSON(t, h.SignOut, http.MethodPost, ``, tr)
	require.Equal(t, http.StatusOK, rec.Code)

	var v View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.False(t, v.SignedIn)
	assert.Equal(t, nav.Profile, v.Page)
	assert.Equal(t, 0, m.Len())
}

func TestHandler_CurrentRequiresTracker(t *testing.T) {
	h, _, _, _ := newTestHandler()

	rec, _ := doJSON(t, h.Current, http.MethodGet, ``, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
