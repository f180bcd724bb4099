package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/trailscan/internal/archive"
	"github.com/ironsheep/trailscan/internal/pipeline"
	"github.com/ironsheep/trailscan/internal/server"
)

// newServeCmd creates the 'serve' subcommand
func newServeCmd(g *globalOptions, info BuildInfo) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trail detection as MCP tools over stdio",
		Long: `Serve trail detection over the Model Context Protocol.

The server reads JSON-RPC 2.0 requests from stdin and writes responses to
stdout, one per line. Logs go to stderr. Configure it in an MCP client as a
stdio server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.Archive.Root = dataDir
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var debug pipeline.DebugFactory
			if cfg.Pipeline.DebugPath != "" {
				debug = &pipeline.DirSink{Root: cfg.Pipeline.DebugPath, Log: log}
			}
			detector := pipeline.NewDetector(pipeline.Options{
				Bright:          cfg.Bright,
				Dim:             cfg.Dim,
				Mask:            cfg.RemoveStars,
				FlipVertical:    cfg.Pipeline.FlipVertical,
				DimFallbackOnly: cfg.Pipeline.DimFallbackOnly,
			}, log, nil, debug)

			srv := server.New(server.Options{
				Store:    archive.New(cfg.Archive.Root, cfg.Archive.FluxMax),
				Detector: detector,
				Mask:     cfg.RemoveStars,
				Version:  info.Version,
				Log:      log,
			})

			log.Info("Serving MCP over stdio",
				zap.String("version", info.Version),
				zap.String("archive", cfg.Archive.Root))
			return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "Archive root (overrides archive.root)")
	return cmd
}
