package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/apperr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestFail_MapsKindToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.New(apperr.Validation, "file too large"), http.StatusBadRequest, "validation"},
		{apperr.New(apperr.Auth, "invalid login credentials"), http.StatusUnauthorized, "auth"},
		{apperr.New(apperr.Configuration, "platform is not configured"), http.StatusServiceUnavailable, "configuration"},
		{apperr.New(apperr.Storage, "bucket not found"), http.StatusBadGateway, "storage"},
		{apperr.New(apperr.Invocation, "function failed"), http.StatusBadGateway, "invocation"},
		{errors.New("pgx: connection reset"), http.StatusInternalServerError, "unexpected"},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.kind, env.Kind)
		})
	}
}

func TestFail_HidesUnexpectedDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, errors.New("dial tcp 10.0.0.5:5432: refused"))

	env := decode(t, rec)
	assert.NotContains(t, env.Error, "10.0.0.5")
}

func TestOK_WrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"page": "gallery"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"page": "gallery"}, env.Data)
}
