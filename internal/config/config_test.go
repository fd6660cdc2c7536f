package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LINKER_TOKEN", "secret")
	t.Setenv("PORT", "")
	t.Setenv("SONGS_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3003, cfg.Port)
	assert.Equal(t, "secret", cfg.LinkerToken)
	assert.Equal(t, "data/songs.json", cfg.SongsPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LINKER_TOKEN", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("SONGS_PATH", "/srv/songs.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/srv/songs.json", cfg.SongsPath)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("LINKER_TOKEN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("LINKER_TOKEN", "secret")

	t.Setenv("PORT", "abc")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PORT", "70000")
	_, err = Load()
	assert.Error(t, err)
}
