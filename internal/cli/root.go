// Package cli provides the trailscan command-line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/trailscan/internal/config"
	"github.com/ironsheep/trailscan/internal/logging"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// BuildInfo identifies the binary; main sets it from ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	noColor    bool
}

// NewRootCmd creates the trailscan command with all subcommands.
func NewRootCmd(info BuildInfo) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "trailscan",
		Short: "Find satellite and meteor trails in survey frames",
		Long: `trailscan searches calibrated survey frames for long straight trails.

Known stars and galaxies are masked using the field catalog, then every frame
is searched twice: a bright pass for strong trails and a dim pass tuned for
faint ones. Accepted trails are reported as the two points where they cross
the frame edge.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file path (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newDetectCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newServeCmd(opts, info))
	root.AddCommand(newVersionCmd(info))

	return root
}

// load reads the configuration and applies the logging flags on top.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}
