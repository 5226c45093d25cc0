package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyFile is returned when a CSV file has no header row.
var ErrEmptyFile = errors.New("empty csv file")

// StandingsHeader is the column order of raw standings files.
var StandingsHeader = []string{
	"position", "team", "played", "won", "drawn", "lost",
	"goal_ratio", "goal_difference", "points", "team_url",
}

// MatchHeader is the column order of raw team games files.
var MatchHeader = []string{
	"round", "date", "time", "home_team", "away_team", "formation",
	"coach", "audience", "result", "match_link",
}

// headerAliases maps superseded column names to their canonical name.
var headerAliases = map[string]string{
	"draw": "drawn",
}

// WriteStandings writes rows as CSV with a header line.
func WriteStandings(w io.Writer, rows []StandingsRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StandingsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Position, r.Team, r.Played, r.Won, r.Drawn, r.Lost,
			r.GoalRatio, r.GoalDifference, r.Points, r.TeamURL,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatches writes rows as CSV with a header line.
func WriteMatches(w io.Writer, rows []MatchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MatchHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Round, r.Date, r.Time, r.HomeTeam, r.AwayTeam, r.Formation,
			r.Coach, strconv.Itoa(r.Audience), r.Result, r.MatchLink,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadStandings parses a standings CSV. Columns are located by header name,
// so files with extra or reordered columns are accepted. The "team" column is
// required.
func ReadStandings(r io.Reader) ([]StandingsRow, error) {
	cols, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if _, ok := cols["team"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "team")
	}

	rows := make([]StandingsRow, 0, len(records))
	for _, rec := range records {
		get := cellGetter(cols, rec)
		rows = append(rows, StandingsRow{
			Position:       get("position"),
			Team:           get("team"),
			Played:         get("played"),
			Won:            get("won"),
			Drawn:          get("drawn"),
			Lost:           get("lost"),
			GoalRatio:      get("goal_ratio"),
			GoalDifference: get("goal_difference"),
			Points:         get("points"),
			TeamURL:        get("team_url"),
		})
	}
	return rows, nil
}

// ReadMatches parses a team games CSV. The four identity columns are
// required; missing or unparseable audience becomes 0.
func ReadMatches(r io.Reader) ([]MatchRow, error) {
	cols, records, err := readTable(r)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"date", "home_team", "away_team", "result"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	rows := make([]MatchRow, 0, len(records))
	for _, rec := range records {
		get := cellGetter(cols, rec)
		rows = append(rows, MatchRow{
			Round:     get("round"),
			Date:      get("date"),
			Time:      get("time"),
			HomeTeam:  get("home_team"),
			AwayTeam:  get("away_team"),
			Formation: get("formation"),
			Coach:     get("coach"),
			Audience:  parseStoredAudience(get("audience")),
			Result:    get("result"),
			MatchLink: get("match_link"),
		})
	}
	return rows, nil
}

func readTable(r io.Reader) (map[string]int, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if canonical, ok := headerAliases[name]; ok {
			name = canonical
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading rows: %w", err)
	}
	return cols, records, nil
}

func cellGetter(cols map[string]int, rec []string) func(string) string {
	return func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
}

// parseStoredAudience reads audience values written by this tool ("45123") or
// by float-typed writers ("45123.0"), falling back to the site's dotted format.
func parseStoredAudience(text string) int {
	if n, err := strconv.Atoi(text); err == nil && n >= 0 {
		return n
	}
	if whole, ok := strings.CutSuffix(text, ".0"); ok {
		if n, err := strconv.Atoi(whole); err == nil && n >= 0 {
			return n
		}
	}
	return ParseAudience(text)
}
