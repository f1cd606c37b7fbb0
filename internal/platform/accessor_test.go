package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navidved/vitrine/internal/apperr"
	"github.com/navidved/vitrine/internal/config"
	"github.com/navidved/vitrine/internal/logging"
)

func configured() config.Platform {
	return config.Platform{URL: "https://demo.supabase.co", AnonKey: "anon", StorageDriver: "minio", StorageEndpoint: "localhost:9000"}
}

func TestAccessor_MissingConfigIsConfigurationError(t *testing.T) {
	builds := 0
	a := NewAccessor(func() config.Platform { return config.Platform{} }, logging.Discard()).
		WithBuilder(func(context.Context, config.Platform) (*Client, error) {
			builds++
			return &Client{}, nil
		})

	c, err := a.Get(context.Background())
	assert.Nil(t, c)
	assert.True(t, apperr.Is(err, apperr.Configuration))
	assert.Contains(t, apperr.Message(err), "PLATFORM_URL")
	assert.Zero(t, builds)
}

func TestAccessor_MemoizesSuccessOnly(t *testing.T) {
	cfg := config.Platform{}
	builds := 0
	a := NewAccessor(func() config.Platform { return cfg }, logging.Discard()).
		WithBuilder(func(_ context.Context, p config.Platform) (*Client, error) {
			builds++
			return &Client{cfg: p}, nil
		})
	ctx := context.Background()

	_, err := a.Get(ctx)
	require.Error(t, err)

	// Configuration fixed later: the next call succeeds.
	cfg = configured()
	c1, err := a.Get(ctx)
	require.NoError(t, err)
	c2, err := a.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, builds)
}

func TestAccessor_BuildFailureIsNotCached(t *testing.T) {
	fail := true
	a := NewAccessor(configured, logging.Discard()).
		WithBuilder(func(context.Context, config.Platform) (*Client, error) {
			if fail {
				return nil, errors.New("bad endpoint")
			}
			return &Client{}, nil
		})
	ctx := context.Background()

	_, err := a.Get(ctx)
	assert.True(t, apperr.Is(err, apperr.Configuration))
	assert.Equal(t, "platform client could not be created", apperr.Message(err))

	fail = false
	_, err = a.Get(ctx)
	assert.NoError(t, err)
}

func TestAdminAccessor_RequiresServiceRoleKey(t *testing.T) {
	a := NewAdminAccessor(configured, logging.Discard())

	st := a.Status(context.Background())
	assert.False(t, st.Configured)
	assert.Equal(t, []string{"PLATFORM_SERVICE_ROLE_KEY"}, st.Missing)
}

func TestNewClient_ElevatedUsesSecretKeyAndNoPersistence(t *testing.T) {
	cfg := configured()
	cfg.ServiceRoleKey = "secret"

	c, err := NewClient(context.Background(), cfg, true, logging.Discard())
	require.NoError(t, err)
	assert.True(t, c.Elevated())
	assert.Equal(t, "secret", c.apiKey)
	assert.NotNil(t, c.NewAuth(SessionOptions{}))

	c, err = NewClient(context.Background(), cfg, false, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "anon", c.apiKey)
}

func TestNewClient_UnknownDriver(t *testing.T) {
	cfg := configured()
	cfg.StorageDriver = "ftp"

	_, err := NewClient(context.Background(), cfg, false, logging.Discard())
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	c := &Client{}
	got, err := Static{Client: c}.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = Static{Err: errors.New("down")}.Get(context.Background())
	assert.Error(t, err)
}
