// Package platform constructs the handle to the hosted auth/storage platform.
// The composition root owns one Accessor per credential level and injects it;
// nothing in this package is global.
package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/config"
	"github.com/navidved/vitrine/internal/functions"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/storage"
)

// Client is a ready handle to the platform.
type Client struct {
	Storage   storage.Storage
	Functions *functions.Client

	cfg        config.Platform
	apiKey     string
	elevated   bool
	httpClient *http.Client
	log        logging.Logger
}

// SessionOptions configures a per-session identity client.
type SessionOptions struct {
	Store    auth.SessionStore
	StoreKey string
}

// NewAuth returns an identity client for one user session. Elevated clients
// never persist or auto-refresh sessions.
func (c *Client) NewAuth(opts SessionOptions) *auth.Client {
	return auth.NewClient(auth.Options{
		BaseURL:        c.cfg.URL,
		APIKey:         c.apiKey,
		HTTPClient:     c.httpClient,
		AutoRefresh:    !c.elevated,
		PersistSession: !c.elevated && opts.Store != nil,
		Store:          opts.Store,
		StoreKey:       opts.StoreKey,
		Logger:         c.log,
	})
}

// Elevated reports whether the client was built with the secret key.
func (c *Client) Elevated() bool { return c.elevated }

// NewClient wires storage, functions, and auth settings from cfg. It makes no network calls.
func NewClient(ctx context.Context, cfg config.Platform, elevated bool, log logging.Logger) (*Client, error) {
	key := cfg.AnonKey
	if elevated {
		key = cfg.ServiceRoleKey
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		Storage:    store,
		Functions:  functions.NewClient(cfg.URL, key),
		cfg:        cfg,
		apiKey:     key,
		elevated:   elevated,
		httpClient: httpClient,
		log:        log,
	}, nil
}

func newStorage(ctx context.Context, cfg config.Platform) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "minio":
		return storage.NewMinioStorage(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey,
			cfg.StorageRegion, cfg.StoragePublicBase, cfg.StorageUseSSL)
	case "memory":
		return storage.NewMemoryStorage(cfg.StoragePublicBase), nil
	case "s3", "":
		return storage.NewS3Storage(ctx, cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey,
			cfg.StorageRegion, cfg.StoragePublicBase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
