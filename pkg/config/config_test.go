package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:5000", cfg.Backend.BaseURL)
	require.Equal(t, "cart", cfg.Cart.StorageKey)
	require.True(t, cfg.App.IsDev())
}

func TestBackendURLValidation(t *testing.T) {
	t.Setenv("STOREFRONT_BACKEND_URL", "ftp://example.com")
	_, err := Load()
	require.Error(t, err)
}

func TestBackendURLTrailingSlashTrimmed(t *testing.T) {
	t.Setenv("STOREFRONT_BACKEND_URL", "http://shop.example.com/")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://shop.example.com", cfg.Backend.BaseURL)
}
