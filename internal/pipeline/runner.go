package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/soccer-scraper/internal/config"
	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/naming"
	"github.com/pfrederiksen/soccer-scraper/internal/record"
	"github.com/pfrederiksen/soccer-scraper/internal/scraper"
	"github.com/pfrederiksen/soccer-scraper/internal/storage"
)

// DocumentFetcher retrieves and parses one page. *scraper.Fetcher
// implements it.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Options bounds the seasons scraped and the pauses between them.
type Options struct {
	BaseURL      string
	MinStartYear int
	FinalYear    int
	SeasonPause  time.Duration
	LeaguePause  time.Duration
}

// SeasonStatus is the outcome of one (league, season).
type SeasonStatus string

const (
	StatusCompleted SeasonStatus = "completed"
	StatusPartial   SeasonStatus = "partial" // standings written, some schedules failed
	StatusFailed    SeasonStatus = "failed"
	StatusSkipped   SeasonStatus = "skipped" // already in the checkpoint
)

// SeasonResult reports what was scraped for one season.
type SeasonResult struct {
	League       string       `json:"league"`
	Season       int          `json:"season"`
	Status       SeasonStatus `json:"status"`
	Teams        int          `json:"teams"`
	TeamsWritten int          `json:"teams_written"`
	TeamsFailed  int          `json:"teams_failed"`
	Matches      int          `json:"matches"`
	Error        string       `json:"error,omitempty"`
}

// Summary aggregates the season results of a run.
type Summary struct {
	Seasons   []SeasonResult `json:"seasons"`
	Completed int            `json:"completed"`
	Partial   int            `json:"partial"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
}

func (s *Summary) add(res SeasonResult) {
	s.Seasons = append(s.Seasons, res)
	switch res.Status {
	case StatusCompleted:
		s.Completed++
	case StatusPartial:
		s.Partial++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	}
}

// Runner scrapes leagues season by season.
type Runner struct {
	fetcher     DocumentFetcher
	layout      *storage.Layout
	checkpoints *storage.CheckpointStore
	opts        Options

	sleep   func(ctx context.Context, d time.Duration) error
	log     *logger.Logger
	metrics *logger.Metrics
}

// Option customises a Runner.
type Option func(*Runner)

// WithSleeper replaces the function used for pauses between seasons and leagues.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithLogger replaces the default logger, typically with one carrying a run id.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records season counters and timings on m.
func WithMetrics(m *logger.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a Runner.
func NewRunner(fetcher DocumentFetcher, layout *storage.Layout, checkpoints *storage.CheckpointStore, opts Options, options ...Option) *Runner {
	r := &Runner{
		fetcher:     fetcher,
		layout:      layout,
		checkpoints: checkpoints,
		opts:        opts,
		sleep:       sleepContext,
		log:         logger.Default(),
		metrics:     logger.NewMetrics(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run scrapes every season of leagues in order. Page-level failures are
// logged and recorded in the summary; the returned error is reserved for
// cancellation and for faults writing the raw tree or the checkpoint.
func (r *Runner) Run(ctx context.Context, leagues []config.League) (*Summary, error) {
	summary := &Summary{}

	for i, league := range leagues {
		scraped, err := r.runLeague(ctx, league, summary)
		if err != nil {
			return summary, err
		}

		if scraped > 0 && i < len(leagues)-1 {
			r.log.Info("Pausing between leagues", logger.Fields{
				"league": league.DirName(),
				"pause":  r.opts.LeaguePause.String(),
			})
			if err := r.sleep(ctx, r.opts.LeaguePause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// runLeague returns the number of seasons that were actually attempted.
func (r *Runner) runLeague(ctx context.Context, league config.League, summary *Summary) (int, error) {
	name := league.DirName()
	first := max(league.StartYear, r.opts.MinStartYear)
	scraped := 0

	r.log.Info("Scraping league", logger.Fields{
		"league": name,
		"from":   first,
		"to":     r.opts.FinalYear,
	})

	for season := first; season <= r.opts.FinalYear; season++ {
		key := record.SeasonKey{League: name, Season: season}
		if r.checkpoints.IsDone(key) {
			r.log.Debug("Season already scraped", logger.Fields{"league": name, "season": season})
			summary.add(SeasonResult{League: name, Season: season, Status: StatusSkipped})
			continue
		}

		start := time.Now()
		res, err := r.scrapeSeason(ctx, league, season)
		r.metrics.RecordTiming("season.scrape", time.Since(start))
		if err != nil {
			return scraped, err
		}
		summary.add(res)
		r.metrics.IncrCounter("seasons." + string(res.Status))
		scraped++

		if res.Status == StatusCompleted {
			r.checkpoints.MarkDone(key)
			if err := r.checkpoints.Save(); err != nil {
				return scraped, fmt.Errorf("saving checkpoint: %w", err)
			}
		}

		r.log.Info("Season finished", logger.Fields{
			"league":        name,
			"season":        season,
			"status":        string(res.Status),
			"teams":         res.Teams,
			"teams_written": res.TeamsWritten,
			"matches":       res.Matches,
		})

		if season < r.opts.FinalYear {
			if err := r.sleep(ctx, r.opts.SeasonPause); err != nil {
				return scraped, err
			}
		}
	}

	return scraped, nil
}

// scrapeSeason returns an error only for conditions that must stop the run.
func (r *Runner) scrapeSeason(ctx context.Context, league config.League, season int) (SeasonResult, error) {
	name := league.DirName()
	res := SeasonResult{League: name, Season: season, Status: StatusFailed}
	fields := logger.Fields{"league": name, "season": season}

	url := StandingsURL(r.opts.BaseURL, league, season)
	doc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if scraper.IsNotFound(err) {
			r.metrics.IncrCounter("seasons.not_found")
			r.log.Warn("Standings page not found", logger.Fields{"league": name, "season": season, "url": url})
		} else {
			r.log.Error("Failed to fetch standings", logger.Fields{"league": name, "season": season, "url": url}, err)
		}
		res.Error = err.Error()
		return res, nil
	}

	rows, err := scraper.ExtractStandings(doc, r.opts.BaseURL)
	if err != nil {
		r.log.Error("Failed to parse standings", fields, err)
		res.Error = err.Error()
		return res, nil
	}
	if len(rows) == 0 {
		r.log.Warn("Standings table has no rows", fields)
		res.Error = "standings table has no rows"
		return res, nil
	}
	res.Teams = len(rows)

	if err := r.layout.EnsureSeason(name, season); err != nil {
		return res, err
	}
	if _, err := r.layout.WriteStandings(name, season, rows); err != nil {
		return res, err
	}

	for _, row := range rows {
		n, err := r.scrapeTeam(ctx, league, season, row)
		if err != nil {
			var fetchErr *scraper.FetchError
			var parseErr *scraper.ParseError
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if !errors.As(err, &fetchErr) && !errors.As(err, &parseErr) {
				return res, err
			}
			r.metrics.IncrCounter("teams.failed")
			res.TeamsFailed++
			continue
		}
		if n > 0 {
			res.TeamsWritten++
			res.Matches += n
		}
	}

	if res.TeamsFailed == 0 {
		res.Status = StatusCompleted
	} else {
		res.Status = StatusPartial
		res.Error = fmt.Sprintf("%d team schedule(s) failed", res.TeamsFailed)
	}
	return res, nil
}

// scrapeTeam writes one team's schedule and returns the number of matches
// written. Teams without a usable URL or name are skipped with a warning.
func (r *Runner) scrapeTeam(ctx context.Context, league config.League, season int, row record.StandingsRow) (int, error) {
	name := league.DirName()
	fields := logger.Fields{"league": name, "season": season, "team": row.Team}

	if row.TeamURL == "" {
		r.log.Warn("Team has no URL, skipping schedule", fields)
		return 0, nil
	}
	if naming.Sanitize(row.Team) == "" {
		r.log.Warn("Team name is empty after sanitizing, skipping schedule", fields)
		return 0, nil
	}

	url := ScheduleURL(row.TeamURL, league.Code)
	doc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		if scraper.IsNotFound(err) {
			r.metrics.IncrCounter("teams.not_found")
			r.log.Warn("Team schedule page not found", logger.Fields{"league": name, "season": season, "team": row.Team, "url": url})
		} else {
			r.log.Error("Failed to fetch team schedule", logger.Fields{"league": name, "season": season, "team": row.Team, "url": url}, err)
		}
		return 0, err
	}

	matches, err := scraper.ExtractSchedule(doc, r.opts.BaseURL, league.Name, league.Code)
	if err != nil {
		r.log.Error("Failed to parse team schedule", fields, err)
		return 0, err
	}
	if len(matches) == 0 {
		r.log.Warn("Team schedule is empty, not writing it", fields)
		return 0, nil
	}

	if _, err := r.layout.WriteGames(name, season, row.Team, matches); err != nil {
		return 0, err
	}
	return len(matches), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
