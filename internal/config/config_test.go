package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default
	cfg.RemoteURL = "https://cloud.example.com"
	cfg.Username = "alice"
	cfg.Password = "secret"
	cfg.VaultDir = "/home/alice/vault"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("accepts a complete config", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("requires vault_dir", func(t *testing.T) {
		cfg := validConfig()
		cfg.VaultDir = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("rejects negative interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.SyncInterval = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("zero interval disables periodic sync", func(t *testing.T) {
		cfg := validConfig()
		cfg.SyncInterval = 0
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects both credential modes at once", func(t *testing.T) {
		cfg := validConfig()
		cfg.UseToken = true
		require.Error(t, cfg.Validate())
	})

	t.Run("accepts token mode without password", func(t *testing.T) {
		cfg := validConfig()
		cfg.UseToken = true
		cfg.Password = ""
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects path traversal in collective_path", func(t *testing.T) {
		cfg := validConfig()
		cfg.CollectivePath = "/Collectives/../etc"
		require.Error(t, cfg.Validate())
	})
}

func TestConnected(t *testing.T) {
	t.Run("password mode needs url, user and password", func(t *testing.T) {
		cfg := validConfig()
		assert.True(t, cfg.Connected())

		cfg.Password = ""
		assert.False(t, cfg.Connected())
	})

	t.Run("token mode needs only the url", func(t *testing.T) {
		cfg := validConfig()
		cfg.UseToken = true
		cfg.Username = ""
		cfg.Password = ""
		assert.True(t, cfg.Connected())
	})

	t.Run("no url means not connected", func(t *testing.T) {
		cfg := validConfig()
		cfg.RemoteURL = ""
		assert.False(t, cfg.Connected())
	})
}
