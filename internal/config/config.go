// Package config loads run configuration from defaults, an optional YAML
// file and TRAILSCAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ironsheep/trailscan/internal/detection"
)

// ErrInvalid marks configuration that cannot be decoded or fails validation.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g.
// TRAILSCAN_BRIGHT_DILATEKERNEL.
const EnvPrefix = "TRAILSCAN"

// Config is the full, immutable configuration of one run.
type Config struct {
	Bright      detection.BrightParams `mapstructure:"bright" yaml:"bright"`
	Dim         detection.DimParams    `mapstructure:"dim" yaml:"dim"`
	RemoveStars detection.MaskParams   `mapstructure:"removestars" yaml:"removestars"`
	Pipeline    PipelineConfig         `mapstructure:"pipeline" yaml:"pipeline"`
	Archive     ArchiveConfig          `mapstructure:"archive" yaml:"archive"`
	Log         LogConfig              `mapstructure:"log" yaml:"log"`
}

// PipelineConfig controls frame scheduling.
type PipelineConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=1"`

	// FlipVertical flips frame and mask after masking so reported
	// coordinates follow the survey's display orientation.
	FlipVertical bool `mapstructure:"flipVertical" yaml:"flipVertical"`

	// DimFallbackOnly runs the dim pass only when the bright pass found
	// nothing.
	DimFallbackOnly bool `mapstructure:"dimFallbackOnly" yaml:"dimFallbackOnly"`

	DebugPath string `mapstructure:"debugPath" yaml:"debugPath"`
}

// ArchiveConfig locates the frame archive.
type ArchiveConfig struct {
	Root string `mapstructure:"root" yaml:"root"`

	// FluxMax is the intensity a full-scale image sample maps to.
	FluxMax float64 `mapstructure:"fluxMax" yaml:"fluxMax" validate:"gt=0"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bright:      detection.DefaultBright(),
		Dim:         detection.DefaultDim(),
		RemoveStars: detection.DefaultMask(),
		Pipeline: PipelineConfig{
			Workers: 4,
		},
		Archive: ArchiveConfig{
			Root:    ".",
			FluxMax: 255,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	loadFromEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unable to decode config: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.RemoveStars.DefaultXY > c.RemoveStars.MaxXY {
		return fmt.Errorf("%w: removestars.defaultxy %d exceeds maxxy %d",
			ErrInvalid, c.RemoveStars.DefaultXY, c.RemoveStars.MaxXY)
	}
	return nil
}

// setDefaults registers every key so the environment can override it.
func setDefaults(v *viper.Viper) {
	d := Default()

	setLineDefaults(v, "bright", d.Bright.LineParams)
	setLineDefaults(v, "dim", d.Dim.LineParams)
	v.SetDefault("dim.minFlux", d.Dim.MinFlux)
	v.SetDefault("dim.addFlux", d.Dim.AddFlux)
	v.SetDefault("dim.erodeKernel", d.Dim.ErodeKernel)

	caps := make(map[string]any, len(d.RemoveStars.FilterCaps))
	for band, mag := range d.RemoveStars.FilterCaps {
		caps[string(band)] = mag
	}
	v.SetDefault("removestars.pixscale", d.RemoveStars.Pixscale)
	v.SetDefault("removestars.defaultxy", d.RemoveStars.DefaultXY)
	v.SetDefault("removestars.maxxy", d.RemoveStars.MaxXY)
	v.SetDefault("removestars.filter_caps", caps)
	v.SetDefault("removestars.magcount", d.RemoveStars.MagCount)
	v.SetDefault("removestars.maxmagdiff", d.RemoveStars.MaxMagDiff)
	v.SetDefault("removestars.magDiffMode", d.RemoveStars.MagDiffMode)
	v.SetDefault("removestars.petroPad", d.RemoveStars.PetroPad)
	v.SetDefault("removestars.debug", d.RemoveStars.Debug)

	v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	v.SetDefault("pipeline.flipVertical", d.Pipeline.FlipVertical)
	v.SetDefault("pipeline.dimFallbackOnly", d.Pipeline.DimFallbackOnly)
	v.SetDefault("pipeline.debugPath", d.Pipeline.DebugPath)

	v.SetDefault("archive.root", d.Archive.Root)
	v.SetDefault("archive.fluxMax", d.Archive.FluxMax)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func setLineDefaults(v *viper.Viper, prefix string, p detection.LineParams) {
	v.SetDefault(prefix+".dilateKernel", p.DilateKernel)
	v.SetDefault(prefix+".contoursMode", p.ContoursMode)
	v.SetDefault(prefix+".contoursMethod", p.ContoursMethod)
	v.SetDefault(prefix+".minAreaRectMinLen", p.MinAreaRectMinLen)
	v.SetDefault(prefix+".lwTresh", p.LwTresh)
	v.SetDefault(prefix+".houghMethod", p.HoughMethod)
	v.SetDefault(prefix+".houghThreshold", p.HoughThreshold)
	v.SetDefault(prefix+".houghWindow", p.HoughWindow)
	v.SetDefault(prefix+".nlinesInSet", p.NlinesInSet)
	v.SetDefault(prefix+".thetaTresh", p.ThetaTresh)
	v.SetDefault(prefix+".linesetTresh", p.LinesetTresh)
	v.SetDefault(prefix+".dro", p.Dro)
	v.SetDefault(prefix+".mergeCollinear", p.MergeCollinear)
	v.SetDefault(prefix+".mergeTheta", p.MergeTheta)
	v.SetDefault(prefix+".mergeRho", p.MergeRho)
	v.SetDefault(prefix+".debug", p.Debug)
}

// loadFromEnv maps bright.dilateKernel to TRAILSCAN_BRIGHT_DILATEKERNEL.
func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
