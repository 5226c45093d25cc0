package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/soccer-scraper/internal/config"
	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/pipeline"
	"github.com/pfrederiksen/soccer-scraper/internal/reconcile"
	"github.com/pfrederiksen/soccer-scraper/internal/scraper"
	"github.com/pfrederiksen/soccer-scraper/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2 // some seasons failed or are incomplete
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	rawDir       string
	processedDir string
	leagues      []string
	format       string
	verbose      bool

	cfg      *config.Config
	runID    string
	log      *logger.Logger
	metrics  *logger.Metrics
	exitCode int
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "soccer-scraper",
		Short: "Scrape football league standings and schedules and reconcile them",
		Long: `A CLI tool to scrape league standings and team schedules from transfermarkt
into CSV files, and to reconcile those files into validated season datasets.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.rawDir, "raw-dir", "", "Raw data directory (overrides RAW_DATA_DIR)")
	flags.StringVar(&a.processedDir, "processed-dir", "", "Processed data directory (overrides PROCESSED_DATA_DIR)")
	flags.StringArrayVar(&a.leagues, "league", nil, "League key to scrape, repeatable (default: all enabled leagues)")
	flags.StringVar(&a.format, "format", "text", "Summary format: text or json")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable debug logging and list every season in the summary")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "scrape",
			Short: "Fetch standings and team schedules into the raw data tree",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, true, false)
			},
		},
		&cobra.Command{
			Use:   "process",
			Short: "Reconcile the raw data tree into processed datasets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, false, true)
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Scrape, then process",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, true, true)
			},
		},
	)

	return cmd
}

// setup loads configuration, applies flag overrides and installs the run
// logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(a.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", a.format)
	}
	a.format = string(format)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.rawDir != "" {
		if cfg.CheckpointFile == cfg.RawDataDir+"/checkpoint.json" {
			cfg.CheckpointFile = a.rawDir + "/checkpoint.json"
		}
		cfg.RawDataDir = a.rawDir
	}
	if a.processedDir != "" {
		cfg.ProcessedDataDir = a.processedDir
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	a.runID = uuid.New().String()[:8]
	a.log = logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr(), logger.ParseFormat(cfg.LogFormat)).
		With(logger.Fields{"run_id": a.runID})
	logger.SetDefault(a.log)
	a.metrics = logger.NewMetrics()

	a.log.Debug("Configuration loaded", logger.Fields{
		"raw_dir":       cfg.RawDataDir,
		"processed_dir": cfg.ProcessedDataDir,
		"checkpoint":    cfg.CheckpointFile,
		"final_year":    cfg.FinalYear,
	})
	return nil
}

func (a *app) run(cmd *cobra.Command, scrape, process bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := &RunSummary{RunID: a.runID, StartedAt: time.Now().UTC()}

	if scrape {
		summary, err := a.scrape(ctx)
		result.Scrape = summary
		if err != nil {
			return fmt.Errorf("scraping: %w", err)
		}
		if summary.Failed > 0 || summary.Partial > 0 {
			a.exitCode = ExitPartial
		}
	}

	if process {
		report, err := a.process(ctx)
		if err != nil {
			return fmt.Errorf("processing: %w", err)
		}
		result.Process = report
	}

	result.Duration = time.Since(result.StartedAt).Round(time.Millisecond).String()
	result.Metrics = a.metrics.Snapshot()

	if err := WriteOutput(cmd.OutOrStdout(), result, OutputFormat(a.format), a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (a *app) scrape(ctx context.Context) (*pipeline.Summary, error) {
	cfg := a.cfg

	registry, err := config.LoadRegistry(cfg.LeaguesFile)
	if err != nil {
		return nil, err
	}
	leagues, err := registry.Select(a.leagues)
	if err != nil {
		return nil, err
	}

	layout, err := storage.NewLayout(cfg.RawDataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	checkpoints := storage.NewCheckpointStore(cfg.CheckpointFile, a.runID)
	if err := checkpoints.Load(); err != nil {
		return nil, err
	}

	fetcher := scraper.NewFetcher(scraper.Options{
		UserAgent:         cfg.UserAgent,
		AcceptLanguage:    cfg.AcceptLanguage,
		Timeout:           cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
		BackoffBase:       cfg.BackoffBase,
		BackoffUnit:       cfg.BackoffUnit,
		DelayMin:          cfg.RequestDelayMin,
		DelayMax:          cfg.RequestDelayMax,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, scraper.WithMetrics(a.metrics))

	runner := pipeline.NewRunner(fetcher, layout, checkpoints, pipeline.Options{
		BaseURL:      cfg.BaseURL,
		MinStartYear: cfg.MinStartYear,
		FinalYear:    cfg.FinalYear,
		SeasonPause:  cfg.SeasonPause,
		LeaguePause:  cfg.LeaguePause,
	}, pipeline.WithLogger(a.log), pipeline.WithMetrics(a.metrics))

	a.log.Info("Starting scrape", logger.Fields{"leagues": len(leagues), "checkpoint": checkpoints.Path()})
	return runner.Run(ctx, leagues)
}

func (a *app) process(ctx context.Context) (*reconcile.Report, error) {
	strategy, err := reconcile.ParseStrategy(a.cfg.ImputationStrategy)
	if err != nil {
		return nil, err
	}

	engine := reconcile.NewEngine(reconcile.Options{
		RawDir:       a.cfg.RawDataDir,
		ProcessedDir: a.cfg.ProcessedDataDir,
		Strategy:     strategy,
		Workers:      a.cfg.ProcessWorkers,
	}, reconcile.WithLogger(a.log), reconcile.WithMetrics(a.metrics))

	return engine.Run(ctx)
}

// run executes the command tree and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Interrupted")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitError
	}
	return a.exitCode
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
