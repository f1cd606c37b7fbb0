package upload

import (
	"errors"
	"mime"
	"net/http"
	"path"
)

// maxMemory is how much of a multipart body is kept in memory before spilling to disk.
const maxMemory = 8 << 20

// FromRequest reads the multipart file in field. A request without that field
// yields a nil File, which Validate reports as ErrNoFile. The returned closer
// must be called once the upload finished.
func FromRequest(r *http.Request, field string) (*File, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, err
	}

	src, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(hdr.Filename)); byExt != "" {
			ct = byExt
		}
	}
	f := &File{Name: hdr.Filename, ContentType: ct, Size: hdr.Size, Body: src}
	return f, func() { _ = src.Close() }, nil
}
