package gallery

import (
	"encoding/json"
	"net/http"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/response"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/upload"
)

// Handler holds HTTP handlers for the gallery page.
type Handler struct {
	viewer *Viewer
	log    logging.Logger
}

// NewHandler creates a new gallery Handler.
func NewHandler(viewer *Viewer, log logging.Logger) *Handler {
	return &Handler{viewer: viewer, log: log}
}

type galleryData struct {
	Images    []Image `json:"images"`
	Count     int     `json:"count"     example:"6"`
	Truncated bool    `json:"truncated"`
	Overlay   string  `json:"overlay,omitempty" example:"gallery-e7eedc79-1741000000000.png"`
	// Error is set when the gallery could not be fetched; Images is then empty.
	Error string `json:"error,omitempty"`
}

type overlayRequest struct {
	Name string `json:"name" example:"gallery-e7eedc79-1741000000000.png"`
}

// List godoc
//
//	@Summary		List gallery images
//	@Description	Returns displayable images from the gallery bucket, newest first. A failed fetch yields an empty list and an error message.
//	@Tags			gallery
//	@Produce		json
//	@Security		BearerAuth
//	@Param			refresh	query		bool	false	"Bypass the cached listing"
//	@Success		200		{object}	response.Envelope{data=galleryData}
//	@Failure		401		{object}	response.Envelope
//	@Router			/gallery [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	images, truncated, err := h.viewer.List(r.Context(), r.URL.Query().Get("refresh") == "true")
	data := galleryData{Images: images, Count: len(images), Truncated: truncated, Overlay: t.Overlay()}
	if err != nil {
		h.log.Warn(r.Context(), "gallery fetch failed", "error", err)
		data.Error = apperr.Message(err)
	}
	response.OK(w, data)
}

// Upload godoc
//
//	@Summary		Upload to gallery
//	@Description	Upload an image (any image MIME type, no size limit) to the gallery bucket.
//	@Tags			gallery
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	response.Envelope{data=upload.Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/gallery [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	release, ok := t.Begin("gallery.upload")
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

	res, err := h.viewer.Upload(r.Context(), t.OwnerID(), f)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Created(w, res)
}

// OpenOverlay godoc
//
//	@Summary		Open overlay
//	@Description	Select one gallery image for the full-size overlay.
//	@Tags			gallery
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		overlayRequest	true	"Image name"
//	@Success		200		{object}	response.Envelope{data=session.View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/gallery/overlay [put]
func (h *Handler) OpenOverlay(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	var req overlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		response.BadRequest(w, "image name is required")
		return
	}
	t.OpenOverlay(req.Name)
	response.OK(w, t.View())
}

// CloseOverlay godoc
//
//	@Summary		Close overlay
//	@Tags			gallery
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=session.View}
//	@Failure		401	{object}	response.Envelope
//	@Router			/gallery/overlay [delete]
func (h *Handler) CloseOverlay(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	t.CloseOverlay()
	response.OK(w, t.View())
}

// Delete godoc
//
//	@Summary		Delete gallery image
//	@Description	Delete an image after explicit confirmation and return the refreshed gallery. Deleting the open image closes the overlay.
//	@Tags			gallery
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	query		string	true	"Image name"
//	@Param			confirm	query		bool	true	"Must be true"
//	@Success		200		{object}	response.Envelope{data=galleryData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/gallery [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	release, ok := t.Begin("gallery.delete")
	if !ok {
		response.Conflict(w, "a delete is already in progress")
		return
	}
	defer release()

	q := r.URL.Query()
	images, truncated, err := h.viewer.Delete(r.Context(), t, q.Get("name"), q.Get("confirm") == "true")
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.OK(w, galleryData{Images: images, Count: len(images), Truncated: truncated, Overlay: t.Overlay()})
}
