package pipeline

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/soccer-scraper/internal/config"
)

// StandingsURL returns the league table page of a season.
func StandingsURL(baseURL string, league config.League, season int) string {
	return fmt.Sprintf("%s/%s/tabelle/wettbewerb/%s/saison_id/%d",
		strings.TrimRight(baseURL, "/"), league.Slug, league.Code, league.URLSeason(season))
}

// ScheduleURL turns a team's overview URL into its detailed schedule URL,
// anchored at the competition's section.
func ScheduleURL(teamURL, leagueCode string) string {
	return strings.Replace(teamURL, "/startseite/", "/spielplan/", 1) + "/plus/1#" + leagueCode
}
