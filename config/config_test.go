package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 40, cfg.Server.Burst)
	assert.Equal(t, 4, cfg.Game.MinPlayers)
	assert.Equal(t, 8, cfg.Game.RosterSize)
	assert.Equal(t, "first_nominee", cfg.Eviction.TieBreak)
	assert.Equal(t, "cancel", cfg.Alliances.RejectionPolicy)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
game:
  roster_size: 12
eviction:
  tie_break: hoh
storage:
  driver: sqlite
  sqlite_path: /tmp/house.db
`), 0o600))

	t.Setenv("HOUSE_ALLIANCES_REJECTION_POLICY", "drop_invitee")
	t.Setenv("HOUSE_GAME_ROSTER_SIZE", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Game.RosterSize)
	assert.Equal(t, "hoh", cfg.Eviction.TieBreak)
	assert.Equal(t, "drop_invitee", cfg.Alliances.RejectionPolicy)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/house.db", cfg.Storage.SQLitePath)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	scenarios := []struct {
		description string
		key         string
		value       string
	}{
		{description: "tie break", key: "HOUSE_EVICTION_TIE_BREAK", value: "coin"},
		{description: "rejection policy", key: "HOUSE_ALLIANCES_REJECTION_POLICY", value: "ignore"},
		{description: "storage driver", key: "HOUSE_STORAGE_DRIVER", value: "redis"},
		{description: "roster smaller than minimum", key: "HOUSE_GAME_ROSTER_SIZE", value: "2"},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			t.Setenv(scenario.key, scenario.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
