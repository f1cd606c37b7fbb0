package upload

import (
	"context"
	"errors"
	"time"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/storage"
)

// Invalidator drops cached listings after a bucket changes.
type Invalidator interface {
	Invalidate(bucket string)
}

// Result describes a stored upload.
type Result struct {
	Bucket    string `json:"bucket"    example:"avatars"`
	Key       string `json:"key"       example:"profiles/profile-e7eedc79-1741000000000.png"`
	PublicURL string `json:"publicUrl" example:"https://xyz.supabase.co/storage/v1/object/public/avatars/profiles/profile-e7eedc79-1741000000000.png"`
	// MetadataSynced is false when the profile attributes could not be written.
	// The upload itself still succeeded.
	MetadataSynced bool `json:"metadataSynced"`
}

// Coordinator runs validated uploads against the platform storage.
type Coordinator struct {
	src platform.Source
	inv Invalidator
	log logging.Logger
	now func() time.Time
}

// NewCoordinator creates a Coordinator. inv may be nil.
func NewCoordinator(src platform.Source, inv Invalidator, log logging.Logger) *Coordinator {
	return &Coordinator{src: src, inv: inv, log: log, now: time.Now}
}

// Upload validates f against p, stores it, and returns its public URL.
func (c *Coordinator) Upload(ctx context.Context, p Policy, owner string, f *File) (*Result, error) {
	if err := p.Validate(f); err != nil {
		return nil, err
	}
	if p.NeedsOwner && owner == "" {
		return nil, auth.ErrNoSession
	}

	pc, err := c.src.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := p.Key(owner, Extension(f.Name), c.now())
	err = pc.Storage.Upload(ctx, p.Bucket, key, f.Body, f.Size, f.ContentType, p.Overwrite)
	if errors.Is(err, storage.ErrObjectExists) {
		return nil, &apperr.Error{Kind: apperr.Storage, Op: "upload " + key, Message: "a file with this name already exists", Err: err}
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "upload "+key, err)
	}

	if c.inv != nil {
		c.inv.Invalidate(p.Bucket)
	}
	c.log.Info(ctx, "file uploaded", "variant", p.Name, "bucket", p.Bucket, "key", key, "size", f.Size)

	return &Result{Bucket: p.Bucket, Key: key, PublicURL: pc.Storage.PublicURL(p.Bucket, key)}, nil
}

// ProfileTarget is the session whose profile image is being replaced.
type ProfileTarget interface {
	OwnerID() string
	Generation() uint64
	UpdateAttributes(ctx context.Context, attrs map[string]any) error
	SetProfile(gen uint64, url, path string) bool
}

// UploadProfile stores a new profile image and records it on the identity so
// it survives the session. A failed attribute write is logged; the upload
// stands and its URL is still returned.
func (c *Coordinator) UploadProfile(ctx context.Context, t ProfileTarget, f *File) (*Result, error) {
	gen := t.Generation()
	res, err := c.Upload(ctx, Profile, t.OwnerID(), f)
	if err != nil {
		return nil, err
	}

	err = t.UpdateAttributes(ctx, map[string]any{
		auth.AttrProfileURL:      res.PublicURL,
		auth.AttrProfileFilePath: res.Key,
	})
	if err != nil {
		c.log.Warn(ctx, "profile attributes not saved", "key", res.Key, "error", err)
	} else {
		res.MetadataSynced = true
	}

	if !t.SetProfile(gen, res.PublicURL, res.Key) {
		c.log.Debug(ctx, "session changed during profile upload, result discarded", "key", res.Key)
	}
	return res, nil
}
