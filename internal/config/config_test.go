package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/ttcheck/internal/config"
	"github.com/orizon-lang/ttcheck/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
compatibility:
  structured: false
  strong_kinds: [integer, "universal charstring"]
diagnostics:
  max_errors: 5
  warnings_as_errors: true
log:
  level: debug
  format: json
metrics:
  enabled: true
watch:
  debounce: 1s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.IsStructured())
	assert.Equal(t, types.NewKindSet(types.TypeKindInteger, types.TypeKindUniversalString), cfg.StrongKinds())
	assert.Equal(t, 5, cfg.Diagnostics.MaxErrors)
	assert.True(t, cfg.Diagnostics.WarningsAsErrors)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "ttcheck", cfg.Metrics.Prefix)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.True(t, cfg.IsStructured())
	assert.Equal(t, types.DefaultStrongKinds(), cfg.StrongKinds())
	assert.Equal(t, 100, cfg.Diagnostics.MaxErrors)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TTCHECK_LOG_LEVEL", "warn")
	t.Setenv("TTCHECK_MAX_ERRORS", "7")
	t.Setenv("TTCHECK_METRICS_ENABLED", "yes")

	path := writeConfig(t, "log:\n  level: debug\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Diagnostics.MaxErrors)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown kind", "compatibility:\n  strong_kinds: [integer, widget]\n", "unknown type kind \"widget\""},
		{"negative cap", "diagnostics:\n  max_errors: -1\n", "max_errors must not be negative"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad yaml", "log: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmptyStrongKinds(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "compatibility:\n  strong_kinds: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.StrongKinds())
}
