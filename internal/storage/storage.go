// Package storage defines the interface for object storage operations.
// Swap implementations by changing the driver selected at startup: the MinIO
// driver serves local development, the S3 driver talks to any S3-compatible
// endpoint including the platform's own, which lives under a URL path.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

// ErrObjectExists is returned by Upload when overwrite is false and the key is taken.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Object is one entry of a bucket listing. Size is nil when the store did not report it.
type Object struct {
	Name      string            `json:"name"`
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Size      *int64            `json:"size,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ListOptions bounds a listing request.
type ListOptions struct {
	Prefix string
	Limit  int
	Offset int
}

// Page is a single listing response.
type Page struct {
	Objects []Object
	// Truncated is set when the store holds more objects than were returned.
	Truncated bool
}

// Blob is a downloaded object. The caller must close Body.
type Blob struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Storage is the interface for listing, uploading, and retrieving objects.
type Storage interface {
	// List returns up to opts.Limit objects directly under opts.Prefix.
	List(ctx context.Context, bucket string, opts ListOptions) (*Page, error)
	// Upload streams data to the store under the given key. With overwrite false
	// an existing key yields ErrObjectExists.
	Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string, overwrite bool) error
	// Download opens the object for reading.
	Download(ctx context.Context, bucket, key string) (*Blob, error)
	// Delete removes the objects identified by keys.
	Delete(ctx context.Context, bucket string, keys []string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(bucket, key string) string
	// EnsureBucket creates the bucket when missing; public buckets get a read-only anonymous policy.
	EnsureBucket(ctx context.Context, bucket string, public bool) error
}

// publicURL joins base, bucket, and an escaped key. It never fails; a
// misconfigured base yields a malformed URL.
func publicURL(base, bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.Join(parts, "/")
}

// window applies offset and limit to a full listing and reports truncation.
func window(objects []Object, opts ListOptions) *Page {
	if opts.Offset > 0 {
		if opts.Offset >= len(objects) {
			objects = nil
		} else {
			objects = objects[opts.Offset:]
		}
	}
	page := &Page{Objects: objects}
	if opts.Limit > 0 && len(objects) > opts.Limit {
		page.Objects = objects[:opts.Limit]
		page.Truncated = true
	}
	return page
}
