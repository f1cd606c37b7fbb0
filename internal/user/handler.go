package user

import (
	"net/http"

	"github.com/navidved/vitrine/internal/response"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/upload"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the identity summary (email, id, last sign-in) and profile image of the signed-in user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			reload	query		bool	false	"Re-read the identity from the platform"
//	@Success		200		{object}	response.Envelope{data=Profile}
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	p, err := h.svc.Me(r.Context(), t, r.URL.Query().Get("reload") == "true")
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.OK(w, p)
}

// UploadAvatar godoc
//
//	@Summary		Upload profile image
//	@Description	Replace the profile image (image types only, at most 5 MiB). The URL is saved on the identity so it survives sign-out.
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	response.Envelope{data=upload.Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/users/me/avatar [post]
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	release, ok := t.Begin("profile.upload")
	if !ok {
		response.Conflict(w, "an upload is already in progress")
		return
	}
	defer release()

	f, closeFile, err := upload.FromRequest(r, "file")
	if err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}
	defer closeFile()

	res, err := h.svc.UploadAvatar(r.Context(), t, f)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.OK(w, res)
}
