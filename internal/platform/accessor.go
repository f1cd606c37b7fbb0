package platform

import (
	"context"
	"strings"
	"sync"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/config"
	"github.com/navidved/vitrine/internal/logging"
)

// Source hands out the current Client. *Accessor and Static implement it.
type Source interface {
	Get(ctx context.Context) (*Client, error)
}

// Static is a Source that always returns the same client or error.
type Static struct {
	Client *Client
	Err    error
}

// Get returns s.Client, or s.Err when set.
func (s Static) Get(context.Context) (*Client, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Client, nil
}

// Builder constructs a Client from configuration.
type Builder func(ctx context.Context, cfg config.Platform) (*Client, error)

// Status is the configuration state shown in the "not configured" banner.
type Status struct {
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Accessor lazily builds and memoizes a Client. Only a successful build is
// memoized; after a failure the next Get re-reads configuration and tries again.
type Accessor struct {
	source   func() config.Platform
	build    Builder
	elevated bool
	log      logging.Logger

	mu     sync.Mutex
	client *Client
}

// NewAccessor returns the public-key accessor.
func NewAccessor(source func() config.Platform, log logging.Logger) *Accessor {
	return &Accessor{
		source: source,
		build: func(ctx context.Context, cfg config.Platform) (*Client, error) {
			return NewClient(ctx, cfg, false, log)
		},
		log: log,
	}
}

// NewAdminAccessor returns the secret-key accessor. Its clients do not persist
// or refresh sessions.
func NewAdminAccessor(source func() config.Platform, log logging.Logger) *Accessor {
	return &Accessor{
		source: source,
		build: func(ctx context.Context, cfg config.Platform) (*Client, error) {
			return NewClient(ctx, cfg, true, log)
		},
		elevated: true,
		log:      log,
	}
}

// WithBuilder replaces the client constructor.
func (a *Accessor) WithBuilder(b Builder) *Accessor {
	a.build = b
	return a
}

// Get returns the memoized Client, building it on first use. Missing
// configuration or a failed build yields a Configuration error; nothing touches the network.
func (a *Accessor) Get(ctx context.Context) (*Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	cfg := a.source()
	missing := cfg.Missing()
	if a.elevated {
		missing = cfg.MissingAdmin()
	}
	if len(missing) > 0 {
		a.log.Error(ctx, "platform client unavailable", "missing", missing, "elevated", a.elevated)
		return nil, apperr.Newf(apperr.Configuration, "platform is not configured: missing %s", strings.Join(missing, ", "))
	}

	c, err := a.build(ctx, cfg)
	if err != nil {
		a.log.Error(ctx, "create platform client failed", "error", err, "elevated", a.elevated)
		return nil, &apperr.Error{Kind: apperr.Configuration, Op: "create platform client", Message: "platform client could not be created", Err: err}
	}

	a.client = c
	return c, nil
}

// Status attempts Get and reports the outcome.
func (a *Accessor) Status(ctx context.Context) Status {
	_, err := a.Get(ctx)
	if err == nil {
		return Status{Configured: true}
	}
	cfg := a.source()
	missing := cfg.Missing()
	if a.elevated {
		missing = cfg.MissingAdmin()
	}
	return Status{Missing: missing, Error: apperr.Message(err)}
}
