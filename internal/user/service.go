// Package user serves the profile page: who is signed in and their profile image.
package user

import (
	"context"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/upload"
)

// Profile is the signed-in user's profile page.
type Profile struct {
	Identity        *session.Summary `json:"identity"`
	ProfileURL      string           `json:"profileUrl,omitempty"      example:"https://xyz.supabase.co/storage/v1/object/public/avatars/profiles/profile-e7eedc79-1741000000000.png"`
	ProfileFilePath string           `json:"profileFilePath,omitempty" example:"profiles/profile-e7eedc79-1741000000000.png"`
}

// Service implements the profile operations.
type Service struct {
	uploads *upload.Coordinator
}

// NewService creates a new user Service.
func NewService(uploads *upload.Coordinator) *Service {
	return &Service{uploads: uploads}
}

// Me returns the profile of the tracker's identity. With reload set the
// identity is first re-read from the platform.
func (s *Service) Me(ctx context.Context, t *session.Tracker, reload bool) (*Profile, error) {
	id := t.Identity()
	if reload {
		var err error
		if id, err = t.Reload(ctx); err != nil {
			return nil, err
		}
	}
	if id == nil {
		return nil, auth.ErrNoSession
	}
	p := &Profile{Identity: session.Summarize(id), ProfileURL: t.ProfileURL(), ProfileFilePath: t.ProfilePath()}
	return p, nil
}

// UploadAvatar replaces the profile image.
func (s *Service) UploadAvatar(ctx context.Context, t *session.Tracker, f *upload.File) (*upload.Result, error) {
	return s.uploads.UploadProfile(ctx, t, f)
}
