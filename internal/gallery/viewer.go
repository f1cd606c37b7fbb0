// Package gallery is the image-only view over the gallery bucket: a grid of
// displayable images and a single-item overlay.
package gallery

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/navidved/vitrine/internal/listing"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/upload"
)

// Bucket is the gallery's fixed bucket.
const Bucket = upload.GalleryBucket

// displayableExtensions are the formats the gallery grid renders. They are
// kept apart from the listing's image category, which also counts formats a
// browser cannot show inline.
var displayableExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "svg": {},
}

// Displayable reports whether name has an extension the gallery shows.
func Displayable(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	_, ok := displayableExtensions[ext]
	return ok
}

// Image is one gallery entry.
type Image struct {
	Name      string    `json:"name"      example:"gallery-e7eedc79-1741000000000.png"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Size      *int64    `json:"size,omitempty"`
	SizeLabel string    `json:"sizeLabel" example:"812 KiB"`
	PublicURL string    `json:"publicUrl"`
}

// Overlay is the session state behind the single-item overlay.
type Overlay interface {
	CloseOverlayIf(name string) bool
}

// Viewer lists, uploads, and deletes gallery images.
type Viewer struct {
	listing *listing.Service
	uploads *upload.Coordinator
	log     logging.Logger
}

// NewViewer creates a Viewer.
func NewViewer(ls *listing.Service, uc *upload.Coordinator, log logging.Logger) *Viewer {
	return &Viewer{listing: ls, uploads: uc, log: log}
}

// List returns the displayable images, newest first, each with its public URL.
func (v *Viewer) List(ctx context.Context, refresh bool) ([]Image, bool, error) {
	snap, err := v.listing.List(ctx, Bucket, refresh)
	if err != nil {
		return []Image{}, false, err
	}
	images, err := v.images(ctx, snap)
	return images, snap.Truncated, err
}

func (v *Viewer) images(ctx context.Context, snap *listing.Snapshot) ([]Image, error) {
	objs := listing.ApplyFilters(snap.Objects, listing.FilterState{Sort: listing.SortCreatedAt})
	out := make([]Image, 0, len(objs))
	for _, o := range objs {
		if !Displayable(o.Name) {
			continue
		}
		u, err := v.listing.PublicURL(ctx, Bucket, o.Name)
		if err != nil {
			return []Image{}, err
		}
		out = append(out, Image{
			Name:      o.Name,
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			Size:      o.Size,
			SizeLabel: listing.FormatSize(o.Size),
			PublicURL: u,
		})
	}
	return out, nil
}

// Upload stores an image for owner. Anything that is not an image is refused
// here, before the shared coordinator runs.
func (v *Viewer) Upload(ctx context.Context, owner string, f *upload.File) (*upload.Result, error) {
	if err := upload.Gallery.Validate(f); err != nil {
		return nil, err
	}
	return v.uploads.Upload(ctx, upload.Gallery, owner, f)
}

// Delete removes name once confirmed and returns the refreshed gallery. When
// name is open in the overlay, the overlay closes.
func (v *Viewer) Delete(ctx context.Context, ov Overlay, name string, confirmed bool) ([]Image, bool, error) {
	snap, err := v.listing.Delete(ctx, Bucket, name, confirmed)
	if err != nil {
		return nil, false, err
	}
	if ov != nil && ov.CloseOverlayIf(name) {
		v.log.Debug(ctx, "overlay closed after delete", "name", name)
	}
	images, err := v.images(ctx, snap)
	return images, snap.Truncated, err
}
