package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()

	cfgPath := filepath.Join(t.TempDir(), ConfigFile)
	assert.NoError(t, WriteConfig(cfgPath, cfg))

	res, err := ReadConfig(cfgPath)
	assert.NoError(t, err)
	assert.Equal(t, cfg, res)
	assert.NoError(t, res.Validate())
}

func TestReadPartialConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), ConfigFile)
	data := `
[Auth]
ChallengeTTL = "2m"
AdminWallets = " TAdmin1 , ,TAdmin2"

[Storage]
Driver = "postgres"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(data), 0644))

	cfg, err := ReadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Auth.ChallengeTTL.Std())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"TAdmin1", "TAdmin2"}, cfg.Auth.AdminWalletList())
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddress)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Events.Enabled = true
	assert.Error(t, cfg.Validate())
	cfg.Redis.URL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())
}
