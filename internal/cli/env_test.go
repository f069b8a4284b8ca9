package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLoaderLoadsRequestedFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "camera.env")
	require.NoError(t, os.WriteFile(envPath, []byte("TARGET_LANG=fr\n"), 0o644))
	t.Setenv("TARGET_LANG", "es")
	t.Setenv(EnvFileVar, "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "missing.env"))
	require.NoError(t, fs.Parse([]string{"--env", envPath}))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, envPath, loaded)
	assert.Equal(t, "fr", os.Getenv("TARGET_LANG"))
}

func TestEnvLoaderPrefersOverrideVariable(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.env")
	flagged := filepath.Join(dir, "flagged.env")
	require.NoError(t, os.WriteFile(override, []byte("WORKERS=7\n"), 0o644))
	require.NoError(t, os.WriteFile(flagged, []byte("WORKERS=3\n"), 0o644))
	t.Setenv("WORKERS", "1")
	t.Setenv(EnvFileVar, override)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, "")
	require.NoError(t, fs.Parse([]string{"--env", flagged}))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, override, loaded)
	assert.Equal(t, "7", os.Getenv("WORKERS"))
}

func TestEnvLoaderFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "default.env")
	require.NoError(t, os.WriteFile(fallback, []byte("QUEUE_SIZE=9\n"), 0o644))
	t.Setenv("QUEUE_SIZE", "")
	t.Setenv(EnvFileVar, filepath.Join(dir, "gone.env"))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, fallback)
	require.NoError(t, fs.Parse([]string{"--env", filepath.Join(dir, "also-gone.env")}))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, fallback, loaded)
	assert.Equal(t, "9", os.Getenv("QUEUE_SIZE"))
}

func TestEnvLoaderMissingFile(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	dir := t.TempDir()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "nope.env"))
	require.NoError(t, fs.Parse([]string{"--env", dir}))

	_, err := loader.Load()
	assert.ErrorIs(t, err, ErrNoEnvFile)

	var nilLoader *EnvLoader
	_, err = nilLoader.Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEnvFile)
}
