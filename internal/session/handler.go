package session

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/response"
)

// Handler holds HTTP handlers for sign-in, sign-up, sign-out, and session state.
type Handler struct {
	manager *Manager
	tokens  *auth.TokenIssuer
	log     logging.Logger
}

// NewHandler creates a new session Handler.
func NewHandler(manager *Manager, tokens *auth.TokenIssuer, log logging.Logger) *Handler {
	return &Handler{manager: manager, tokens: tokens, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"    example:"ada@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

type pageRequest struct {
	Page string `json:"page" example:"gallery"`
}

type signInData struct {
	Token     string    `json:"token"     example:"eyJhbGci..."`
	ExpiresAt time.Time `json:"expiresAt" example:"2026-03-06T14:48:34Z"`
	Session   View      `json:"session"`
}

type signUpData struct {
	NeedsVerification bool       `json:"needsVerification" example:"true"`
	Message           string     `json:"message,omitempty" example:"check your email to confirm your account"`
	Token             string     `json:"token,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	Session           *View      `json:"session,omitempty"`
}

// SignIn godoc
//
//	@Summary		Sign in
//	@Description	Authenticate with email and password. Returns a session token for the other endpoints.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=signInData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/auth/signin [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.manager.Create(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	id, err := t.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.manager.Drop(r.Context(), t.ID())
		response.Fail(w, err)
		return
	}

	data, err := h.issue(t, id)
	if err != nil {
		h.manager.Drop(r.Context(), t.ID())
		response.Fail(w, err)
		return
	}
	h.log.Info(r.Context(), "signed in", "session", t.ID(), "user", id.ID)
	response.OK(w, data)
}

// SignUp godoc
//
//	@Summary		Sign up
//	@Description	Register with email and password. Unless the platform auto-confirms, the account must be verified by email before signing in.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Credentials"
//	@Success		201		{object}	response.Envelope{data=signUpData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	t, err := h.manager.Create(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	res, err := t.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.manager.Drop(r.Context(), t.ID())
		response.Fail(w, err)
		return
	}

	if res.NeedsVerification {
		h.manager.Drop(r.Context(), t.ID())
		response.Created(w, signUpData{
			NeedsVerification: true,
			Message:           "check your email to confirm your account, then sign in",
		})
		return
	}

	data, err := h.issue(t, t.Identity())
	if err != nil {
		h.manager.Drop(r.Context(), t.ID())
		response.Fail(w, err)
		return
	}
	response.Created(w, signUpData{Token: data.Token, ExpiresAt: &data.ExpiresAt, Session: &data.Session})
}

// SignOut godoc
//
//	@Summary		Sign out
//	@Description	End the platform session. All identity-derived state is cleared and the page returns to profile.
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=View}
//	@Failure		401	{object}	response.Envelope
//	@Router			/auth/signout [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	t, ok := FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if err := t.SignOut(r.Context()); err != nil {
		response.Fail(w, err)
		return
	}

	view := t.View()
	h.manager.Drop(r.Context(), t.ID())
	h.log.Info(r.Context(), "signed out", "session", t.ID())
	response.OK(w, view)
}

// Current godoc
//
//	@Summary		Current session
//	@Description	Returns the signed-in identity, the active page, the profile image URL, and the open gallery overlay.
//	@Tags			session
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=View}
//	@Failure		401	{object}	response.Envelope
//	@Router			/session [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	t, ok := FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	response.OK(w, t.View())
}

// SetPage godoc
//
//	@Summary		Navigate
//	@Description	Switch the active page. Unknown pages fall back to profile.
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		pageRequest	true	"Target page"
//	@Success		200		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/session/page [put]
func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	t, ok := FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	prev := t.Router().Current()
	if next := t.Router().Go(req.Page); next != prev {
		// The overlay belongs to one gallery visit.
		t.CloseOverlay()
	}
	response.OK(w, t.View())
}

func (h *Handler) issue(t *Tracker, id *auth.Identity) (*signInData, error) {
	if id == nil {
		return nil, apperr.New(apperr.Auth, "sign-in did not produce a session")
	}
	token, exp, err := h.tokens.Issue(t.ID(), id.ID, id.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unexpected, "issue token", err)
	}
	return &signInData{Token: token, ExpiresAt: exp, Session: t.View()}, nil
}
