// Package nav maps page identifiers to the three top-level views.
package nav

import "sync"

// Page is a top-level view.
type Page string

const (
	Profile Page = "profile"
	Storage Page = "storage"
	Gallery Page = "gallery"
)

// Pages lists every view in menu order.
var Pages = []Page{Profile, Storage, Gallery}

// Parse maps s to a Page. Anything unrecognized is Profile.
func Parse(s string) Page {
	switch p := Page(s); p {
	case Profile, Storage, Gallery:
		return p
	default:
		return Profile
	}
}

// Router holds the current page. Transitions are plain assignments.
type Router struct {
	mu      sync.RWMutex
	current Page
}

// NewRouter starts on Profile.
func NewRouter() *Router {
	return &Router{current: Profile}
}

// Current returns the active page.
func (r *Router) Current() Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Go switches to the page named by s and returns the page actually selected.
func (r *Router) Go(s string) Page {
	p := Parse(s)
	r.mu.Lock()
	r.current = p
	r.mu.Unlock()
	return p
}

// Reset returns to Profile.
func (r *Router) Reset() {
	r.mu.Lock()
	r.current = Profile
	r.mu.Unlock()
}
