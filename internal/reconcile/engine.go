package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
)

// Options configures an Engine.
type Options struct {
	RawDir       string
	ProcessedDir string
	Strategy     Strategy
	Workers      int // seasons processed concurrently, default 1
}

// Report summarises a reconciliation run.
type Report struct {
	Seasons          int      `json:"seasons"`
	SeasonsWithGames int      `json:"seasons_with_games"`
	ValidSeasons     int      `json:"valid_seasons"`
	StandingsRows    int      `json:"standings_rows"`
	Games            int      `json:"games"`
	SkippedFiles     int      `json:"skipped_files"`
	Outputs          []string `json:"outputs"`
}

// Engine reconciles a raw data tree into the processed outputs.
type Engine struct {
	opts    Options
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger replaces the default logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records file counters and timings on m.
func WithMetrics(m *logger.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine.
func NewEngine(opts Options, options ...Option) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyFillForwardBackward
	}

	e := &Engine{
		opts:    opts,
		log:     logger.Default(),
		metrics: logger.NewMetrics(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Run processes every season under RawDir and regenerates all outputs in
// ProcessedDir. Seasons are processed on up to Workers goroutines; outputs
// are ordered by league and season regardless.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	defer func() { e.metrics.RecordTiming("reconcile.run", time.Since(start)) }()

	inputs, skipped, err := e.discover(e.opts.RawDir)
	if err != nil {
		return nil, err
	}
	e.log.Info("Discovered seasons", logger.Fields{
		"seasons": len(inputs),
		"workers": e.opts.Workers,
		"raw_dir": e.opts.RawDir,
	})

	results := make([]*seasonResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := e.processSeason(gctx, in)
			if err != nil {
				return fmt.Errorf("processing %s: %w", in.key, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{SkippedFiles: skipped}
	out := assemble(results)
	for _, res := range results {
		if res == nil {
			continue
		}
		report.SkippedFiles += res.skipped
	}
	report.Seasons = len(out.summaries) + out.seasonsWithoutSummary
	report.SeasonsWithGames = len(out.summaries)
	report.ValidSeasons = len(out.valid)
	report.StandingsRows = len(out.standings)
	report.Games = len(out.games)
	e.metrics.SetGauge("reconcile.seasons", float64(report.Seasons))
	e.metrics.SetGauge("reconcile.valid_seasons", float64(report.ValidSeasons))

	if err := os.MkdirAll(e.opts.ProcessedDir, 0755); err != nil {
		return nil, fmt.Errorf("creating processed directory: %w", err)
	}
	paths, err := writeOutputs(e.opts.ProcessedDir, out)
	if err != nil {
		return nil, err
	}
	report.Outputs = paths

	for _, p := range paths {
		e.log.Info("Wrote output", logger.Fields{"file": filepath.Base(p)})
	}
	e.log.Info("Reconciliation complete", logger.Fields{
		"seasons":        report.Seasons,
		"valid_seasons":  report.ValidSeasons,
		"standings_rows": report.StandingsRows,
		"games":          report.Games,
		"skipped_files":  report.SkippedFiles,
	})
	return report, nil
}
