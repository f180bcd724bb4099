package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/trailscan/internal/archive"
	"github.com/ironsheep/trailscan/internal/config"
	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/survey"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", BuildTime: "today", GitCommit: "abc123"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandStructure(t *testing.T) {
	cmd := NewRootCmd(BuildInfo{})

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"detect", "config", "serve", "version"} {
		assert.True(t, names[want], "Missing command: %s", want)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "trailscan 1.2.3\n  Build time: today\n  Git commit: abc123\n", out)
}

func TestConfigCmd(t *testing.T) {
	out, err := execute(t, "config", "--log-level", "debug")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.Default().Bright, cfg.Bright)
	assert.Equal(t, config.Default().RemoveStars.FilterCaps, cfg.RemoveStars.FilterCaps)
}

func TestConfigCmdInvalidFlag(t *testing.T) {
	_, err := execute(t, "config", "--log-level", "loud")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{spec: "11", want: []int{11}},
		{spec: "11-14", want: []int{11, 12, 13, 14}},
		{spec: "20, 11-12,12", want: []int{11, 12, 20}},
		{spec: "5-5", want: []int{5}},
		{spec: "", wantErr: true},
		{spec: "9-3", wantErr: true},
		{spec: "a-3", wantErr: true},
		{spec: "-3", wantErr: true},
		{spec: "3-", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseFields(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	bands, err := parseFilters(nil)
	require.NoError(t, err)
	assert.Equal(t, survey.Bands, bands)

	bands, err = parseFilters([]string{"z", "G", "z"})
	require.NoError(t, err)
	assert.Equal(t, []survey.Band{survey.BandG, survey.BandZ}, bands)

	_, err = parseFilters([]string{"y"})
	assert.Error(t, err)
}

func TestFrameList(t *testing.T) {
	frames := frameList(94, []int{1, 2}, []int{11, 12}, []survey.Band{survey.BandR, survey.BandI})
	require.Len(t, frames, 8)
	assert.Equal(t, survey.FrameID{Run: 94, Camcol: 1, Filter: survey.BandR, Field: 11}, frames[0])
	assert.Equal(t, survey.FrameID{Run: 94, Camcol: 1, Filter: survey.BandI, Field: 11}, frames[1])
	assert.Equal(t, survey.FrameID{Run: 94, Camcol: 1, Filter: survey.BandR, Field: 12}, frames[2])
	assert.Equal(t, survey.FrameID{Run: 94, Camcol: 2, Filter: survey.BandI, Field: 12}, frames[7])
}

func TestEvictingCatalog(t *testing.T) {
	root := t.TempDir()
	store := archive.New(root, 255)
	r := survey.FrameID{Run: 94, Camcol: 1, Filter: survey.BandR, Field: 11}
	g := r
	g.Filter = survey.BandG

	path := store.CatalogPath(r)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0o644))

	c := newEvictingCatalog(store, []survey.FrameID{r, g})
	ctx := context.Background()

	_, err := c.Sources(ctx, r)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// Still cached for the second filter.
	sources, err := c.Sources(ctx, g)
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	// Evicted after the last planned filter.
	_, err = c.Sources(ctx, r)
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestDetectCmd(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "94", "1")

	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 99; y <= 101; y++ {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 5})
		}
	}
	require.NoError(t, imaging.SavePNG(img, filepath.Join(dir, "frame-r-000094-1-0011.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photoObj-000094-1-0011.csv"), []byte("x,y\n"), 0o644))

	out := t.TempDir()
	results := filepath.Join(out, "results.txt")
	errorsPath := filepath.Join(out, "errors.txt")
	metricsPath := filepath.Join(out, "trailscan.prom")

	summary, err := execute(t, "detect",
		"--log-level", "error",
		"--run", "94", "--camcol", "1", "--filter", "r", "--fields", "11-12",
		"--data", root,
		"--results", results,
		"--errors", errorsPath,
		"--metrics-file", metricsPath,
		"--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, summary, "Frames:     2")
	assert.Contains(t, summary, "Failed:     1")

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "94 1 r 11 "), line)
	}

	data, err = os.ReadFile(errorsPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "94,1,12,r\n"), string(data))

	data, err = os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `trailscan_frames_total{status="failed"} 1`)
}

func TestDetectCmdValidation(t *testing.T) {
	tests := [][]string{
		{"detect", "--fields", "1"},
		{"detect", "--run", "94"},
		{"detect", "--run", "94", "--fields", "x"},
		{"detect", "--run", "94", "--fields", "1", "--camcol", "7"},
		{"detect", "--run", "94", "--fields", "1", "--filter", "y"},
		{"detect", "--run", "94", "--fields", "1", "--format", "xml"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			_, err := execute(t, append([]string{"--log-level", "error"}, args...)...)
			assert.Error(t, err)
		})
	}
}

func TestServeCmd(t *testing.T) {
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n"))
	cmd.SetArgs([]string{"--log-level", "error", "serve", "--data", t.TempDir()})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{}}`, out.String())
}
