package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/survey"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trailscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, detection.DefaultBright(), cfg.Bright)
	assert.Equal(t, detection.DefaultDim(), cfg.Dim)
	assert.Equal(t, detection.DefaultMask(), cfg.RemoveStars)
	assert.Equal(t, Default().Pipeline, cfg.Pipeline)
	assert.Equal(t, 255.0, cfg.Archive.FluxMax)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bright:
  dilateKernel: 6
  contoursMode: external
  debug: true
dim:
  minFlux: 0.05
  mergeRho: 5
removestars:
  maxxy: 80
  filter_caps:
    r: 21.5
pipeline:
  workers: 2
  dimFallbackOnly: true
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Bright.DilateKernel)
	assert.Equal(t, detection.ContoursExternal, cfg.Bright.ContoursMode)
	assert.True(t, cfg.Bright.Debug)
	// Untouched keys keep their defaults.
	assert.Equal(t, detection.DefaultBright().LwTresh, cfg.Bright.LwTresh)
	assert.Equal(t, 0.05, cfg.Dim.MinFlux)
	assert.Equal(t, 9, cfg.Dim.DilateKernel)
	assert.Equal(t, 5.0, cfg.Dim.MergeRho)
	assert.Equal(t, detection.DefaultDim().MergeTheta, cfg.Dim.MergeTheta)
	assert.Equal(t, 80, cfg.RemoveStars.MaxXY)
	assert.Equal(t, 21.5, cfg.RemoveStars.FilterCaps[survey.BandR])
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.DimFallbackOnly)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRAILSCAN_BRIGHT_DILATEKERNEL", "7")
	t.Setenv("TRAILSCAN_PIPELINE_WORKERS", "8")
	t.Setenv("TRAILSCAN_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Bright.DilateKernel)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong type", "bright:\n  dilateKernel: wide\n"},
		{"zero kernel", "dim:\n  erodeKernel: 0\n"},
		{"unknown contour mode", "bright:\n  contoursMode: tree\n"},
		{"negative pixscale", "removestars:\n  pixscale: -1\n"},
		{"unknown band cap", "removestars:\n  filter_caps:\n    y: 20\n"},
		{"negative merge tolerance", "bright:\n  mergeTheta: -0.1\n"},
		{"window too wide", "bright:\n  houghWindow: 2\n"},
		{"defaultxy above maxxy", "removestars:\n  defaultxy: 90\n"},
		{"log level", "log:\n  level: loud\n"},
		{"no workers", "pipeline:\n  workers: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
