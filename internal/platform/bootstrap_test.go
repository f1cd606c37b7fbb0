package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/logging"
	"github.com/navidved/vitrine/internal/storage"
)

func TestEnsureBuckets(t *testing.T) {
	mem := storage.NewMemoryStorage("http://cdn")
	src := Static{Client: &Client{Storage: mem}}

	require.NoError(t, EnsureBuckets(context.Background(), src, logging.Discard(), "avatars", "gallery"))

	_, err := mem.List(context.Background(), "gallery", storage.ListOptions{})
	assert.NoError(t, err)
	_, err = mem.List(context.Background(), "user-files", storage.ListOptions{})
	assert.Error(t, err)
}

func TestEnsureBuckets_Unconfigured(t *testing.T) {
	src := Static{Err: apperr.New(apperr.Configuration, "platform is not configured")}
	err := EnsureBuckets(context.Background(), src, logging.Discard(), "avatars")
	assert.True(t, apperr.Is(err, apperr.Configuration))
}
