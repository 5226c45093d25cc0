package scraper

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

const (
	standingsTableSelector = "table.items"
	standingsMinCells      = 10
	standingsTeamAnchor    = "a[href]"
)

var (
	standingsPosition = column{"position", 0, []columnRule{cellText}}
	standingsTeam     = column{"team", 1, []columnRule{anchorTitle(standingsTeamAnchor), cellText}}
	standingsCounts   = []column{
		{"played", 3, []columnRule{cellText}},
		{"won", 4, []columnRule{cellText}},
		{"drawn", 5, []columnRule{cellText}},
		{"lost", 6, []columnRule{cellText}},
		{"goal_ratio", 7, []columnRule{cellText}},
		{"goal_difference", 8, []columnRule{cellText}},
		{"points", 9, []columnRule{cellText}},
	}
)

// ExtractStandings parses the league table of a standings page. Rows with
// fewer than ten cells are logged and skipped; a table with only a header
// yields an empty slice.
func ExtractStandings(doc *goquery.Document, baseURL string) ([]record.StandingsRow, error) {
	links, err := newLinkResolver(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	table := doc.Find(standingsTableSelector).First()
	if table.Length() == 0 {
		return nil, &ParseError{Element: "standings table", Detail: standingsTableSelector}
	}

	rows := make([]record.StandingsRow, 0, 20)
	dataRows(table).Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < standingsMinCells {
			logger.Warn("Skipping standings row with unexpected structure", logger.Fields{
				"row":   i + 1,
				"cells": cells.Length(),
			})
			return
		}

		values := make(map[string]string, len(standingsCounts))
		for _, c := range standingsCounts {
			values[c.name] = c.extract(cells)
		}

		rows = append(rows, record.StandingsRow{
			Position:       standingsPosition.extract(cells),
			Team:           standingsTeam.extract(cells),
			Played:         values["played"],
			Won:            values["won"],
			Drawn:          values["drawn"],
			Lost:           values["lost"],
			GoalRatio:      values["goal_ratio"],
			GoalDifference: values["goal_difference"],
			Points:         values["points"],
			TeamURL:        links.href(cells.Eq(standingsTeam.index), standingsTeamAnchor),
		})
	})

	return rows, nil
}
