package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/pipeline"
	"github.com/pfrederiksen/soccer-scraper/internal/reconcile"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// RunSummary contains data to be output
type RunSummary struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Duration  string            `json:"duration"`
	Scrape    *pipeline.Summary `json:"scrape,omitempty"`
	Process   *reconcile.Report `json:"process,omitempty"`
	Metrics   logger.Snapshot   `json:"metrics"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *RunSummary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *RunSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable tables. Skipped seasons are
// listed only in verbose mode.
func writeText(w io.Writer, result *RunSummary, verbose bool) error {
	fmt.Fprintf(w, "Run %s (%s)\n", result.RunID, result.Duration)

	if s := result.Scrape; s != nil {
		fmt.Fprintln(w)
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"League", "Season", "Status", "Teams", "Written", "Failed", "Matches", "Error"})
		for _, season := range s.Seasons {
			if season.Status == pipeline.StatusSkipped && !verbose {
				continue
			}
			t.AppendRow(table.Row{
				season.League, season.Season, season.Status,
				season.Teams, season.TeamsWritten, season.TeamsFailed, season.Matches, season.Error,
			})
		}
		t.AppendFooter(table.Row{"Total", len(s.Seasons), "", "", "", "", "", ""})
		t.Render()

		fmt.Fprintf(w, "Seasons: %d completed, %d partial, %d failed, %d skipped\n",
			s.Completed, s.Partial, s.Failed, s.Skipped)
	}

	if p := result.Process; p != nil {
		fmt.Fprintln(w)
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Processed", "Count"})
		t.AppendRows([]table.Row{
			{"Seasons", p.Seasons},
			{"Seasons with games", p.SeasonsWithGames},
			{"Valid seasons", p.ValidSeasons},
			{"Standings rows", p.StandingsRows},
			{"Games", p.Games},
			{"Skipped files", p.SkippedFiles},
		})
		t.Render()

		if verbose {
			for _, path := range p.Outputs {
				fmt.Fprintf(w, "  wrote %s\n", path)
			}
		}
	}

	if verbose && len(result.Metrics.Counters) > 0 {
		names := make([]string, 0, len(result.Metrics.Counters))
		for name := range result.Metrics.Counters {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "\nCounters:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, result.Metrics.Counters[name])
		}
	}

	return nil
}
