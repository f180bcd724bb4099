package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/trailscan/internal/archive"
	"github.com/ironsheep/trailscan/internal/metrics"
	"github.com/ironsheep/trailscan/internal/pipeline"
)

type detectOptions struct {
	run         int
	camcols     []int
	filters     []string
	fields      string
	dataDir     string
	results     string
	errorsPath  string
	format      string
	debugDir    string
	workers     int
	metricsFile string
}

// newDetectCmd creates the 'detect' subcommand
func newDetectCmd(g *globalOptions) *cobra.Command {
	opts := &detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Search frames for trails",
		Long: `Search every frame of a run for trails.

Frames are addressed by run, camera column, filter and field. Results are
written one line per trail as "run camcol filter field x1 y1 x2 y2 pass"
(or JSON lines with --format json). Frames that cannot be read are listed
in the errors file and skipped.`,
		Example: `  trailscan detect --run 94 --fields 11-30 --data /survey
  trailscan detect --run 2888 --camcol 1 --filter i --fields 139 --debug-dir debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, g, opts)
		},
	}

	cmd.Flags().IntVar(&opts.run, "run", 0, "Run number")
	cmd.Flags().IntSliceVar(&opts.camcols, "camcol", []int{1, 2, 3, 4, 5, 6}, "Camera columns")
	cmd.Flags().StringSliceVar(&opts.filters, "filter", nil, "Filters (default all of u,g,r,i,z)")
	cmd.Flags().StringVar(&opts.fields, "fields", "", "Fields, e.g. 11-30,42")
	cmd.Flags().StringVar(&opts.dataDir, "data", "", "Archive root (overrides archive.root)")
	cmd.Flags().StringVarP(&opts.results, "results", "o", "-", "Results file, - for stdout")
	cmd.Flags().StringVar(&opts.errorsPath, "errors", "", "Errors file (failures are only logged when empty)")
	cmd.Flags().StringVar(&opts.format, "format", pipeline.FormatText, "Results format: text or json")
	cmd.Flags().StringVar(&opts.debugDir, "debug-dir", "", "Directory for debug snapshots (overrides pipeline.debugPath)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Frames processed in parallel (overrides pipeline.workers)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	_ = cmd.MarkFlagRequired("run")
	_ = cmd.MarkFlagRequired("fields")

	return cmd
}

func runDetect(cmd *cobra.Command, g *globalOptions, opts *detectOptions) (err error) {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if opts.dataDir != "" {
		cfg.Archive.Root = opts.dataDir
	}
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.debugDir != "" {
		cfg.Pipeline.DebugPath = opts.debugDir
	}

	fields, err := parseFields(opts.fields)
	if err != nil {
		return err
	}
	bands, err := parseFilters(opts.filters)
	if err != nil {
		return err
	}
	for _, c := range opts.camcols {
		if c < 1 || c > 6 {
			return fmt.Errorf("invalid camcol %d (expected 1-6)", c)
		}
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.New().String()
	log = log.With(zap.String("run_id", runID))

	results, closeResults, err := openOutput(opts.results, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeResults()) }()

	resultSink, err := pipeline.NewWriterSink(results, opts.format)
	if err != nil {
		return err
	}

	var failureSink pipeline.FailureSink
	if opts.errorsPath != "" {
		w, closeErrors, openErr := openOutput(opts.errorsPath, cmd.ErrOrStderr())
		if openErr != nil {
			return openErr
		}
		defer func() { err = errors.Join(err, closeErrors()) }()
		failureSink = pipeline.NewWriterFailureSink(w)
	}

	var debug pipeline.DebugFactory
	if cfg.Pipeline.DebugPath != "" {
		debug = &pipeline.DirSink{Root: cfg.Pipeline.DebugPath, Log: log}
	}

	m := metrics.New()
	store := archive.New(cfg.Archive.Root, cfg.Archive.FluxMax)
	frames := frameList(opts.run, opts.camcols, fields, bands)

	detector := pipeline.NewDetector(pipeline.Options{
		Bright:          cfg.Bright,
		Dim:             cfg.Dim,
		Mask:            cfg.RemoveStars,
		FlipVertical:    cfg.Pipeline.FlipVertical,
		DimFallbackOnly: cfg.Pipeline.DimFallbackOnly,
	}, log, m, debug)

	runner := &pipeline.Runner{
		Images:   store,
		Catalog:  newEvictingCatalog(store, frames),
		Detector: detector,
		Results:  resultSink,
		Failures: failureSink,
		Workers:  cfg.Pipeline.Workers,
		Log:      log,
		Metrics:  m,
		RunID:    runID,
	}

	summary, runErr := runner.Run(cmd.Context(), frames)

	if opts.metricsFile != "" {
		if err := m.WriteTextfile(opts.metricsFile); err != nil {
			log.Error("Failed to write metrics", zap.Error(err))
		}
	}
	printSummary(cmd.ErrOrStderr(), runID, summary)
	return runErr
}

// openOutput opens path for writing; "-" selects fallback.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "-" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func printSummary(w io.Writer, runID string, s pipeline.Summary) {
	headerColor.Fprintf(w, "Run %s\n", runID)
	fmt.Fprintf(w, "  Frames:     %d\n", s.Frames)
	if s.Failed > 0 {
		fmt.Fprintf(w, "  Failed:     %s\n", errorColor.Sprint(s.Failed))
	} else {
		fmt.Fprintf(w, "  Failed:     %s\n", successColor.Sprint(0))
	}
	fmt.Fprintf(w, "  Detections: %s\n", infoColor.Sprint(s.Detections))
	fmt.Fprintf(w, "  Elapsed:    %s\n", s.Elapsed.Round(time.Millisecond))
}
