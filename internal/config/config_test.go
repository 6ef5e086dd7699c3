package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 500, cfg.StartingResources)
	assert.Equal(t, 5.0, cfg.BuildRange)
	assert.Equal(t, 2, cfg.MinPlayers)
	assert.Equal(t, "Scene_Map_01", cfg.MapID)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RTS_MAP_ID=Scene_Map_02\n"), 0o600))
	t.Setenv("RTS_STARTING_RESOURCES", "750")
	t.Setenv("RTS_ORIGIN_PATTERNS", "localhost:*,127.0.0.1:*")
	t.Cleanup(func() { os.Unsetenv("RTS_MAP_ID") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 750, cfg.StartingResources)
	assert.Equal(t, "Scene_Map_02", cfg.MapID)
	assert.Equal(t, []string{"localhost:*", "127.0.0.1:*"}, cfg.OriginPatterns)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"RTS_STARTING_RESOURCES": "-1",
		"RTS_BUILD_RANGE":        "0",
		"RTS_MIN_PLAYERS":        "1",
		"RTS_UNIT_HEALTH":        "abc",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}
