package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

const scheduleMinCells = 11

var (
	scheduleRound     = column{"round", 0, []columnRule{anchorText("a"), cellText}}
	scheduleDate      = column{"date", 1, []columnRule{cellText}}
	scheduleTime      = column{"time", 2, []columnRule{cellText}}
	scheduleHomeTeam  = column{"home_team", 4, []columnRule{anchorTitle("a"), anchorText("a"), cellText}}
	scheduleAwayTeam  = column{"away_team", 6, []columnRule{anchorText("a"), cellText}}
	scheduleFormation = column{"formation", 7, []columnRule{cellText}}
	scheduleCoach     = column{"coach", 8, []columnRule{anchorText("a"), cellText}}
	scheduleAudience  = column{"audience", 9, []columnRule{cellText}}
	scheduleResult    = column{"result", 10, []columnRule{anchorText("a"), cellText}}
)

// ExtractSchedule parses one team's fixtures for a competition from its
// schedule page. The table is taken from the container whose id equals
// leagueCode, or, when the page has no such container, from the first table
// after an h2 heading containing leagueName. A container without a table is
// a ParseError. Rows with fewer than eleven cells are skipped.
func ExtractSchedule(doc *goquery.Document, baseURL, leagueName, leagueCode string) ([]record.MatchRow, error) {
	links, err := newLinkResolver(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	table := findScheduleTable(doc, leagueName, leagueCode)
	if table == nil {
		return nil, &ParseError{
			Element: "schedule table",
			Detail:  fmt.Sprintf("no #%s container or %q section", leagueCode, leagueName),
		}
	}

	matches := make([]record.MatchRow, 0, 40)
	dataRows(table).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < scheduleMinCells {
			return
		}

		matches = append(matches, record.MatchRow{
			Round:     scheduleRound.extract(cells),
			Date:      scheduleDate.extract(cells),
			Time:      scheduleTime.extract(cells),
			HomeTeam:  scheduleHomeTeam.extract(cells),
			AwayTeam:  scheduleAwayTeam.extract(cells),
			Formation: scheduleFormation.extract(cells),
			Coach:     scheduleCoach.extract(cells),
			Audience:  record.ParseAudience(scheduleAudience.extract(cells)),
			Result:    scheduleResult.extract(cells),
			MatchLink: links.href(cells.Eq(scheduleResult.index), "a"),
		})
	})

	return matches, nil
}

// findScheduleTable returns nil when no table is found. The heading lookup
// only runs when there is no container for leagueCode.
func findScheduleTable(doc *goquery.Document, leagueName, leagueCode string) *goquery.Selection {
	if leagueCode != "" {
		container := doc.Find("div[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == leagueCode
		}).First()
		if container.Length() > 0 {
			if table := container.Find("table").First(); table.Length() > 0 {
				return table
			}
			return nil
		}
	}

	if leagueName == "" {
		return nil
	}

	// Headings and tables come back in document order, so the first table
	// after the matching heading is the one that follows it on the page.
	var (
		found   *goquery.Selection
		inScope bool
	)
	doc.Find("h2, table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "h2" {
			if !inScope && strings.Contains(s.Text(), leagueName) {
				inScope = true
			}
			return true
		}
		if inScope {
			found = s
			return false
		}
		return true
	})
	return found
}
