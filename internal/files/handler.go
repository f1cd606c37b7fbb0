// Package files serves the storage page: bucket listings, generic uploads,
// downloads, deletes, and the image-processing hook.
package files

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/functions"
	"github.com/navidved/vitrine/internal/listing"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/response"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/storage"
	"github.com/navidved/vitrine/internal/upload"
)

// listable are the buckets the storage page may browse.
var listable = map[string]bool{
	upload.UserFilesBucket: true,
	upload.AvatarsBucket:   true,
	upload.GalleryBucket:   true,
}

// Handler holds HTTP handlers for bucket objects.
type Handler struct {
	src     platform.Source
	listing *listing.Service
	uploads *upload.Coordinator
	log     logging.Logger
}

// NewHandler creates a new files Handler.
func NewHandler(src platform.Source, ls *listing.Service, uc *upload.Coordinator, log logging.Logger) *Handler {
	return &Handler{src: src, listing: ls, uploads: uc, log: log}
}

type processRequest struct {
	Bucket    string              `json:"bucket"    example:"user-files"`
	FileName  string              `json:"fileName"  example:"3f2c9e1a.png"`
	Operation functions.Operation `json:"operation" example:"resize"`
	Width     *int                `json:"width,omitempty"   example:"300"`
	Height    *int                `json:"height,omitempty"  example:"300"`
	Quality   *int                `json:"quality,omitempty" example:"80"`
}

func bucketParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	b := chi.URLParam(r, "bucket")
	if !listable[b] {
		response.BadRequest(w, "unknown bucket")
		return "", false
	}
	return b, true
}

// List godoc
//
//	@Summary		List objects
//	@Description	List up to 100 objects of a bucket with search, category filter, and sort applied. A failed fetch yields an empty list and an error message.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			bucket		path		string	true	"Bucket"	Enums(user-files, avatars, gallery)
//	@Param			search		query		string	false	"Case-insensitive name substring"
//	@Param			category	query		string	false	"Category"	Enums(all, images, documents, videos)
//	@Param			sort		query		string	false	"Sort key"	Enums(name, size, createdAt)
//	@Param			refresh		query		bool	false	"Bypass the cached listing"
//	@Success		200			{object}	response.Envelope{data=listing.View}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Router			/buckets/{bucket}/objects [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	st := listing.FilterState{
		Search:   q.Get("search"),
		Category: listing.ParseCategory(q.Get("category")),
		Sort:     listing.ParseSort(q.Get("sort")),
	}

	snap, err := h.listing.List(r.Context(), bucket, q.Get("refresh") == "true")
	if err != nil {
		h.log.Warn(r.Context(), "listing failed", "bucket", bucket, "error", err)
		v := listing.Render(nil, st, nil)
		v.Bucket = bucket
		v.Error = apperr.Message(err)
		response.OK(w, v)
		return
	}

	var urlFor func(string) string
	if pc, err := h.src.Get(r.Context()); err == nil {
		urlFor = func(name string) string { return pc.Storage.PublicURL(bucket, name) }
	}
	response.OK(w, listing.Render(snap, st, urlFor))
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Upload any file to the user-files bucket under a random key. Existing keys are never overwritten.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			bucket	path		string	true	"Bucket"	Enums(user-files)
//	@Param			file	formData	file	true	"File"
//	@Success		201		{object}	response.Envelope{data=upload.Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/buckets/{bucket}/objects [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}
	if bucket != upload.Generic.Bucket {
		response.BadRequest(w, "use the profile or gallery page to upload to "+bucket)
		return
	}
	release, ok := t.Begin("files.upload")
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

	res, err := h.uploads.Upload(r.Context(), upload.Generic, t.OwnerID(), f)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.Created(w, res)
}

// Download godoc
//
//	@Summary		Download a file
//	@Description	Stream an object as an attachment named after its last path segment.
//	@Tags			files
//	@Produce		octet-stream
//	@Security		BearerAuth
//	@Param			bucket	path		string	true	"Bucket"
//	@Param			name	query		string	true	"Object name"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/buckets/{bucket}/objects/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}

	err := h.listing.Download(r.Context(), bucket, r.URL.Query().Get("name"), func(saveAs string, blob *storage.Blob) error {
		ct := blob.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": saveAs}))
		if blob.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		_, err := io.Copy(w, blob.Body)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Unexpected {
			// Headers are already out; the client sees a truncated body.
			h.log.Warn(r.Context(), "download interrupted", "bucket", bucket, "error", err)
			return
		}
		response.Fail(w, err)
	}
}

// Delete godoc
//
//	@Summary		Delete a file
//	@Description	Delete an object after explicit confirmation, then return the re-fetched listing.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			bucket	path		string	true	"Bucket"
//	@Param			name	query		string	true	"Object name"
//	@Param			confirm	query		bool	true	"Must be true"
//	@Success		200		{object}	response.Envelope{data=listing.View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/buckets/{bucket}/objects [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}
	release, ok := t.Begin("files.delete")
	if !ok {
		response.Conflict(w, "a delete is already in progress")
		return
	}
	defer release()

	q := r.URL.Query()
	name := q.Get("name")
	snap, err := h.listing.Delete(r.Context(), bucket, name, q.Get("confirm") == "true")
	if err != nil {
		response.Fail(w, err)
		return
	}
	if bucket == upload.GalleryBucket {
		t.CloseOverlayIf(name)
	}
	response.OK(w, listing.Render(snap, listing.FilterState{}, nil))
}

// Process godoc
//
//	@Summary		Process an image
//	@Description	Run the image-process edge function (resize, compress, or thumbnail) on a stored image.
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		processRequest	true	"Transform"
//	@Success		200		{object}	response.Envelope{data=functions.ImageResult}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/images/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	t, ok := session.FromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	var body processRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req := functions.ImageRequest(body)
	if !listable[req.Bucket] {
		response.BadRequest(w, "unknown bucket")
		return
	}
	if err := req.Validate(); err != nil {
		response.Fail(w, err)
		return
	}
	release, ok := t.Begin("images.process")
	if !ok {
		response.Conflict(w, "processing is already in progress")
		return
	}
	defer release()

	pc, err := h.src.Get(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	res, err := pc.Functions.ProcessImage(r.Context(), t.AccessToken(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.listing.Invalidate(req.Bucket)
	h.log.Info(r.Context(), "image processed", "bucket", req.Bucket, "source", req.FileName, "result", res.ProcessedFileName)
	response.OK(w, res)
}
