package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/souvenir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, souvenir.DefaultIgnoredModules, cfg.Ignored)
	assert.Equal(t, 3, cfg.MinEligible)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "souvenir.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
tick: 50ms
seed: 7
excluded: [Maze]
ignored: []
http:
  addr: ":9000"
redis:
  addr: localhost:6379
`), 0o644))

	t.Setenv("SOUVENIR_SEED", "42")
	t.Setenv("SOUVENIR_EXCLUDED", "Maze,The Button")
	t.Setenv("SOUVENIR_REDIS_PREFIX", "bomb:1:")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	assert.Equal(t, uint64(42), cfg.Seed, "environment overrides the file")
	assert.Equal(t, []string{"Maze", "The Button"}, cfg.Excluded)
	assert.Empty(t, cfg.Ignored, "an explicit empty list disables the defaults")
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "bomb:1:", cfg.Redis.Prefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.PollInterval, "defaults survive")
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	var cfg Config
	err = Decode(strings.NewReader("colour: blue\n"), &cfg)
	assert.ErrorContains(t, err, "colour")

	bad := Default()
	bad.LogLevel = "loud"
	bad.MinEligible = 0
	err = bad.Validate()
	assert.ErrorContains(t, err, "invalid log level")
	assert.ErrorContains(t, err, "min_eligible")
}

func TestDecode_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader(""), &cfg))
	assert.Equal(t, Default(), cfg)
}
