// Package auth is the client side of the platform's identity service: it signs
// users in and out, keeps their platform session fresh, pushes identity changes
// to subscribers, and persists sessions across restarts.
package auth

import (
	"time"
)

// Identity attribute keys used to keep the profile image across sessions.
const (
	AttrProfileURL      = "profile_url"
	AttrProfileFilePath = "profile_file_path"
)

// Identity is the authenticated principal as reported by the identity service.
type Identity struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	LastSignInAt *time.Time     `json:"lastSignInAt,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

// ProfileURL returns the stored profile image URL, if any.
func (i *Identity) ProfileURL() string {
	return i.attr(AttrProfileURL)
}

// ProfileFilePath returns the storage key of the stored profile image, if any.
func (i *Identity) ProfileFilePath() string {
	return i.attr(AttrProfileFilePath)
}

func (i *Identity) attr(key string) string {
	if i == nil || i.Attributes == nil {
		return ""
	}
	s, _ := i.Attributes[key].(string)
	return s
}

// Clone returns a deep-enough copy: the attribute map is copied, values are shared.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Attributes != nil {
		c.Attributes = make(map[string]any, len(i.Attributes))
		for k, v := range i.Attributes {
			c.Attributes[k] = v
		}
	}
	if i.LastSignInAt != nil {
		t := *i.LastSignInAt
		c.LastSignInAt = &t
	}
	return &c
}

// Session is a platform session: tokens plus the identity they belong to.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         Identity  `json:"user"`
}

// Event names an identity transition.
type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventSignedOut      Event = "signed_out"
	EventTokenRefreshed Event = "token_refreshed"
	EventUserUpdated    Event = "user_updated"
)

// Change is delivered to subscribers on every transition. Identity is nil after sign-out.
type Change struct {
	Event    Event
	Identity *Identity
}
