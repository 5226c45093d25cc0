package record

import (
	"fmt"
	"strconv"
	"strings"
)

// StandingsRow is one team's line in an end-of-season league table.
// Numeric columns hold the trimmed cell text; they are coerced during
// reconciliation because the site formats them inconsistently.
type StandingsRow struct {
	Position       string `json:"position"`
	Team           string `json:"team"`
	Played         string `json:"played"`
	Won            string `json:"won"`
	Drawn          string `json:"drawn"`
	Lost           string `json:"lost"`
	GoalRatio      string `json:"goal_ratio"`
	GoalDifference string `json:"goal_difference"`
	Points         string `json:"points"`
	TeamURL        string `json:"team_url,omitempty"` // absolute URL on the source host, or empty
}

// MatchRow is one fixture from a team's schedule page.
type MatchRow struct {
	Round     string `json:"round"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Formation string `json:"formation"`
	Coach     string `json:"coach"`
	Audience  int    `json:"audience"` // 0 means unknown, not an empty stadium
	Result    string `json:"result"`
	MatchLink string `json:"match_link,omitempty"`
}

// MatchKey identifies a match across team files. Each match appears once in
// the home team's schedule and once in the away team's.
type MatchKey struct {
	Date     string
	HomeTeam string
	AwayTeam string
	Result   string
}

// Key returns the deduplication identity of the match.
func (m MatchRow) Key() MatchKey {
	return MatchKey{
		Date:     m.Date,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Result:   m.Result,
	}
}

// SeasonKey identifies one competition-season.
type SeasonKey struct {
	League string `json:"league_name"`
	Season int    `json:"season_year"`
}

// String renders the key as "league/season".
func (k SeasonKey) String() string {
	return fmt.Sprintf("%s/%d", k.League, k.Season)
}

// ParseSeasonKey parses the "league/season" form produced by String.
func ParseSeasonKey(s string) (SeasonKey, error) {
	league, season, ok := strings.Cut(s, "/")
	if !ok || league == "" {
		return SeasonKey{}, fmt.Errorf("invalid season key: %q", s)
	}
	year, err := strconv.Atoi(season)
	if err != nil {
		return SeasonKey{}, fmt.Errorf("invalid season key: %q", s)
	}
	return SeasonKey{League: league, Season: year}, nil
}

// Less orders season keys by league, then season.
func (k SeasonKey) Less(other SeasonKey) bool {
	if k.League != other.League {
		return k.League < other.League
	}
	return k.Season < other.Season
}

// ParseAudience converts attendance text such as "45.123" into an integer.
// The site uses "." as thousands separator. Empty or unparseable text yields 0,
// the sentinel for unknown attendance.
func ParseAudience(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(text, ".", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
