package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ADDR", "API_BASE_URL", "API_TIMEOUT", "STORE_DRIVER", "AUTH_POPUP", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.True(t, cfg.AuthPopup)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.ErrorIs(t, cfg.RequireSecret(), ErrMissingSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:9999/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_POPUP", "false")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.False(t, cfg.AuthPopup)
	assert.NoError(t, cfg.RequireSecret())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	t.Run("postgres needs a url", func(t *testing.T) {
		cfg := Config{StoreDriver: "postgres", APITimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})
	t.Run("unknown driver", func(t *testing.T) {
		cfg := Config{StoreDriver: "redis", APITimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})
	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := Config{StoreDriver: "memory"}
		assert.Error(t, cfg.Validate())
	})
}
