package session

import (
	"time"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/nav"
)

// Summary is the identity as shown to the browser.
type Summary struct {
	ID           string     `json:"id"           example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Email        string     `json:"email"        example:"ada@example.com"`
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty"`
}

// Summarize returns nil for a nil identity.
func Summarize(id *auth.Identity) *Summary {
	if id == nil {
		return nil
	}
	return &Summary{ID: id.ID, Email: id.Email, LastSignInAt: id.LastSignInAt}
}

// View is the hoisted session state the browser renders from.
type View struct {
	SignedIn   bool     `json:"signedIn"             example:"true"`
	Identity   *Summary `json:"identity,omitempty"`
	Page       nav.Page `json:"page"                 example:"profile"`
	ProfileURL string   `json:"profileUrl,omitempty"`
	Overlay    string   `json:"overlay,omitempty"`
}

// View snapshots the tracker state.
func (t *Tracker) View() View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return View{
		SignedIn:   t.identity != nil,
		Identity:   Summarize(t.identity),
		Page:       t.router.Current(),
		ProfileURL: t.profileURL,
		Overlay:    t.overlay,
	}
}
