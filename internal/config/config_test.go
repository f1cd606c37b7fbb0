package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "SESSION_TTL", "SESSION_STORE", "AUTH_RATE_LIMIT", "PLATFORM_URL", "PLATFORM_ANON_KEY"} {
		t.Setenv(k, "")
	}

	c := Load()

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "development", c.AppEnv)
	assert.False(t, c.IsProduction())
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
	assert.Equal(t, "postgres", c.SessionStore)
	assert.Equal(t, 5.0, c.AuthRateLimit)
	assert.Equal(t, []string{"PLATFORM_URL", "PLATFORM_ANON_KEY"}, c.Platform.Missing())
}

func TestLoadPlatform_DerivesStorageURLs(t *testing.T) {
	t.Setenv("PLATFORM_URL", "https://demo.supabase.co/")
	t.Setenv("PLATFORM_ANON_KEY", "anon")
	t.Setenv("STORAGE_ENDPOINT", "")
	t.Setenv("STORAGE_PUBLIC_BASE", "")
	t.Setenv("PLATFORM_TIMEOUT", "3s")

	p := LoadPlatform()

	assert.Equal(t, "https://demo.supabase.co", p.URL)
	assert.Equal(t, "https://demo.supabase.co/storage/v1/s3", p.StorageEndpoint)
	assert.Equal(t, "https://demo.supabase.co/storage/v1/object/public", p.StoragePublicBase)
	assert.Equal(t, 3*time.Second, p.RequestTimeout)
	assert.Empty(t, p.Missing())
}

func TestPlatform_MissingAdmin(t *testing.T) {
	p := Platform{URL: "https://demo.supabase.co", AnonKey: "anon"}
	assert.Equal(t, []string{"PLATFORM_SERVICE_ROLE_KEY"}, p.MissingAdmin())

	p.ServiceRoleKey = "secret"
	assert.Empty(t, p.MissingAdmin())
}

func TestGetters_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	t.Setenv("X_INT", "ten")
	t.Setenv("X_FLOAT", "")

	assert.Equal(t, time.Minute, getDuration("X_DURATION", time.Minute))
	assert.Equal(t, 3, getInt("X_INT", 3))
	assert.Equal(t, 1.5, getFloat("X_FLOAT", 1.5))
}
