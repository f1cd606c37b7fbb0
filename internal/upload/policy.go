// Package upload validates local files, derives storage keys, and puts the
// files into the platform's buckets.
package upload

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navidved/vitrine/internal/apperr"
)

// Bucket names shared with the listing and gallery views.
const (
	AvatarsBucket   = "avatars"
	UserFilesBucket = "user-files"
	GalleryBucket   = "gallery"
)

// MaxProfileSize is the largest accepted profile image.
const MaxProfileSize = 5 << 20

// Validation failures, checked in this order.
var (
	ErrNoFile    = apperr.New(apperr.Validation, "no file selected")
	ErrWrongType = apperr.New(apperr.Validation, "only image files are allowed")
	ErrTooLarge  = apperr.New(apperr.Validation, "file size must be less than 5MB")
)

// File is one local file chosen for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// KeyFunc derives the storage key for a file.
type KeyFunc func(owner, ext string, now time.Time) string

// Policy describes one upload variant.
type Policy struct {
	Name   string
	Bucket string
	// TypePrefix is the required MIME family, e.g. "image/". Empty accepts anything.
	TypePrefix string
	// MaxSize in bytes; zero means no limit.
	MaxSize   int64
	Overwrite bool
	// NeedsOwner rejects anonymous uploads; the owner id is part of the key.
	NeedsOwner bool
	Key        KeyFunc
}

var (
	// Profile images replace each other; the newest upload wins.
	Profile = Policy{
		Name:       "profile",
		Bucket:     AvatarsBucket,
		TypePrefix: "image/",
		MaxSize:    MaxProfileSize,
		Overwrite:  true,
		NeedsOwner: true,
		Key: func(owner, ext string, now time.Time) string {
			return "profiles/" + withExt(fmt.Sprintf("profile-%s-%d", owner, now.UnixMilli()), ext)
		},
	}

	// Generic accepts any file under a random key.
	Generic = Policy{
		Name:   "generic",
		Bucket: UserFilesBucket,
		Key: func(_, ext string, _ time.Time) string {
			return withExt(uuid.NewString(), ext)
		},
	}

	// Gallery accepts images of any size.
	Gallery = Policy{
		Name:       "gallery",
		Bucket:     GalleryBucket,
		TypePrefix: "image/",
		NeedsOwner: true,
		Key: func(owner, ext string, now time.Time) string {
			return withExt(fmt.Sprintf("gallery-%s-%d", owner, now.UnixMilli()), ext)
		},
	}
)

// Validate checks f against the policy without touching the network.
func (p Policy) Validate(f *File) error {
	if f == nil || f.Body == nil {
		return ErrNoFile
	}
	if p.TypePrefix != "" && !strings.HasPrefix(strings.ToLower(f.ContentType), p.TypePrefix) {
		return ErrWrongType
	}
	if p.MaxSize > 0 && f.Size > p.MaxSize {
		return ErrTooLarge
	}
	return nil
}

// Extension returns the extension of name without the dot, or "".
func Extension(name string) string {
	ext := path.Ext(name)
	if len(ext) <= 1 {
		return ""
	}
	return ext[1:]
}

func withExt(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}
