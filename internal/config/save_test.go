package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnabledRoundTrip(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SetEnabled("photoprism", false))
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.False(t, reloaded.Services["photoprism"].Enabled)
	// flipping one flag must not touch its neighbours
	assert.True(t, reloaded.Services["mariadb"].Enabled)
	assert.True(t, reloaded.Services["actual"].Enabled)
	assert.Equal(t, []string{"mariadb"}, reloaded.Services["photoprism"].DependsOn)
}

func TestSetEnabledAddsMissingKey(t *testing.T) {
	path := writeConfig(t, `
services:
  app:
    image: img
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Services["app"].Enabled)

	require.NoError(t, cfg.SetEnabled("app", true))
	require.NoError(t, cfg.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Services["app"].Enabled)
}

func TestSetEnabledUnknownService(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.ErrorIs(t, cfg.SetEnabled("ghost", true), ErrUnknownService)
}

func TestSavePreservesComments(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.SetEnabled("actual", false))
	require.NoError(t, cfg.Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "# homelab test fixture"))
}

func TestSaveWithoutSource(t *testing.T) {
	cfg := &Config{Services: map[string]*Service{"a": {Image: "img"}}}
	require.Error(t, cfg.Save())
}
