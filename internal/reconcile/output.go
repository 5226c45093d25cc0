package reconcile

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Output file names under the processed directory.
const (
	StandingsFullFile   = "standings_full.csv"
	SeasonsSummaryFile  = "seasons_summary.csv"
	SeasonsValidFile    = "seasons_valid.csv"
	StandingsConcatFile = "final_standings_concat.csv"
	GamesUnifiedFile    = "games_unified.csv"
	StandingsJSONFile   = "final_standings_concat.json"
)

var (
	standingsConcatHeader = []string{
		"position", "team", "team_sanitized", "played", "won", "drawn", "lost",
		"goal_ratio", "goal_difference", "points", "team_url", "league_name",
		"season_year", "source_csv_file", "source_id", "id", "is_valid_url",
	}
	seasonMetricsHeader = []string{
		"has_all_teams_files", "num_total_teams", "num_total_games",
		"num_null_attendance_games", "pct_null_attendance_games",
		"is_double_rounded", "is_valid_attendance", "total_attendance", "mean_attendance",
	}
	summaryHeader = []string{
		"source_id", "source_csv_file", "league_name", "season_year",
		"has_all_teams_files", "num_total_teams", "num_total_games",
		"num_null_attendance_games", "pct_null_attendance_games", "is_valid_url",
		"is_double_rounded", "is_valid_attendance", "total_attendance", "mean_attendance",
	}
	gamesHeader = []string{
		"id", "source_id", "league_name", "season_year", "round", "date", "time",
		"home_team", "home_team_sanitized", "away_team", "away_team_sanitized",
		"formation", "coach", "audience", "audience_imputed", "result", "match_link",
	}
)

// standingsFullHeader is the enriched standings row followed by the season
// metrics. The season-level URL flag is renamed to avoid clashing with the
// row-level one.
var standingsFullHeader = append(append(append([]string{}, standingsConcatHeader...), "season_is_valid_url"), seasonMetricsHeader...)

// assembled holds every output table in league, season order.
type assembled struct {
	standings             []StandingsRecord
	joined                []*SeasonSummary // season summary of each standings row, defaulted when missing
	summaries             []*SeasonSummary
	valid                 []*SeasonSummary
	games                 []GameRecord
	seasonsWithoutSummary int
}

// assemble left-joins standings with their season summaries.
func assemble(results []*seasonResult) *assembled {
	out := &assembled{}
	for _, res := range results {
		if res == nil || len(res.standings) == 0 {
			continue
		}

		summary := res.summary
		if summary == nil {
			summary = defaultSummary(res.key)
			out.seasonsWithoutSummary++
		} else {
			out.summaries = append(out.summaries, summary)
			if summary.IsValid() {
				out.valid = append(out.valid, summary)
			}
		}

		for _, s := range res.standings {
			out.standings = append(out.standings, s)
			out.joined = append(out.joined, summary)
		}
		out.games = append(out.games, res.games...)
	}
	return out
}

// standingsJSON builds {league: {season: {team_sanitized: position}}} from
// rows of fully valid seasons whose own URL is valid.
func (a *assembled) standingsJSON() map[string]map[string]map[string]int {
	out := make(map[string]map[string]map[string]int)
	for i, s := range a.standings {
		if !a.joined[i].IsValid() || !s.IsValidURL || !s.Position.Valid {
			continue
		}
		seasons, ok := out[s.League]
		if !ok {
			seasons = make(map[string]map[string]int)
			out[s.League] = seasons
		}
		year := strconv.Itoa(s.Season)
		if seasons[year] == nil {
			seasons[year] = make(map[string]int)
		}
		seasons[year][s.TeamSanitized] = s.Position.Int
	}
	return out
}

// writeOutputs regenerates every output file and returns their paths.
func writeOutputs(dir string, a *assembled) ([]string, error) {
	concat := make([][]string, len(a.standings))
	full := make([][]string, len(a.standings))
	for i, s := range a.standings {
		concat[i] = standingsFields(s)
		full[i] = append(append(standingsFields(s), formatBool(a.joined[i].IsValidURL)), metricsFields(a.joined[i])...)
	}

	games := make([][]string, len(a.games))
	for i, g := range a.games {
		games[i] = gameFields(g)
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{StandingsFullFile, standingsFullHeader, full},
		{SeasonsSummaryFile, summaryHeader, summaryRows(a.summaries)},
		{SeasonsValidFile, summaryHeader, summaryRows(a.valid)},
		{StandingsConcatFile, standingsConcatHeader, concat},
		{GamesUnifiedFile, gamesHeader, games},
	}

	paths := make([]string, 0, len(tables)+1)
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeCSV(path, t.header, t.rows); err != nil {
			return nil, fmt.Errorf("writing %s: %w", t.name, err)
		}
		paths = append(paths, path)
	}

	data, err := json.MarshalIndent(a.standingsJSON(), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", StandingsJSONFile, err)
	}
	path := filepath.Join(dir, StandingsJSONFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", StandingsJSONFile, err)
	}
	return append(paths, path), nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func standingsFields(s StandingsRecord) []string {
	return []string{
		s.Position.String(),
		s.Row.Team,
		s.TeamSanitized,
		s.Played.String(),
		s.Won.String(),
		s.Drawn.String(),
		s.Lost.String(),
		s.Row.GoalRatio,
		s.GoalDifference.String(),
		s.Points.String(),
		s.Row.TeamURL,
		s.League,
		strconv.Itoa(s.Season),
		s.SourceCSVFile,
		s.SourceID,
		s.ID,
		formatBool(s.IsValidURL),
	}
}

func metricsFields(s *SeasonSummary) []string {
	return []string{
		formatBool(s.HasAllTeamsFiles),
		strconv.Itoa(s.NumTotalTeams),
		strconv.Itoa(s.NumTotalGames),
		strconv.Itoa(s.NumNullAttendanceGames),
		formatFloat(s.PctNullAttendanceGames),
		formatBool(s.IsDoubleRounded),
		formatBool(s.IsValidAttendance),
		s.TotalAttendance.String(),
		formatMean(s),
	}
}

func summaryRows(summaries []*SeasonSummary) [][]string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.SourceID,
			s.SourceCSVFile,
			s.League,
			strconv.Itoa(s.Season),
			formatBool(s.HasAllTeamsFiles),
			strconv.Itoa(s.NumTotalTeams),
			strconv.Itoa(s.NumTotalGames),
			strconv.Itoa(s.NumNullAttendanceGames),
			formatFloat(s.PctNullAttendanceGames),
			formatBool(s.IsValidURL),
			formatBool(s.IsDoubleRounded),
			formatBool(s.IsValidAttendance),
			s.TotalAttendance.String(),
			formatMean(s),
		}
	}
	return rows
}

func gameFields(g GameRecord) []string {
	raw := NullInt{Int: g.Row.Audience, Valid: g.Row.Audience > 0}
	return []string{
		g.ID,
		g.SourceID,
		g.League,
		strconv.Itoa(g.Season),
		g.Row.Round,
		g.Row.Date,
		g.Row.Time,
		g.Row.HomeTeam,
		g.HomeSanitized,
		g.Row.AwayTeam,
		g.AwaySanitized,
		g.Row.Formation,
		g.Row.Coach,
		raw.String(),
		g.AudienceImputed.String(),
		g.Row.Result,
		g.Row.MatchLink,
	}
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatMean(s *SeasonSummary) string {
	if !s.TotalAttendance.Valid {
		return ""
	}
	return formatFloat(s.MeanAttendance)
}
