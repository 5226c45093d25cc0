package scraper

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

const testBaseURL = "https://www.transfermarkt.com.br"

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return parseHTML(t, string(data))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func TestExtractStandings(t *testing.T) {
	rows, err := ExtractStandings(loadFixture(t, "standings.html"), testBaseURL)
	if err != nil {
		t.Fatalf("ExtractStandings failed: %v", err)
	}

	want := []record.StandingsRow{
		{
			Position: "1", Team: "Manchester City", Played: "38", Won: "28", Drawn: "5", Lost: "5",
			GoalRatio: "94:33", GoalDifference: "+61", Points: "89",
			TeamURL: "https://www.transfermarkt.com.br/manchester-city/startseite/verein/281/saison_id/2022",
		},
		{
			Position: "2", Team: "Arsenal FC", Played: "38", Won: "26", Drawn: "6", Lost: "6",
			GoalRatio: "88:43", GoalDifference: "+45", Points: "84",
			TeamURL: "https://www.transfermarkt.com.br/fc-arsenal/startseite/verein/11/saison_id/2022",
		},
		{
			Position: "3", Team: "Manchester United", Played: "38", Won: "23", Drawn: "6", Lost: "9",
			GoalRatio: "58:43", GoalDifference: "+15", Points: "75",
		},
	}

	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestExtractStandings_EdgeCases(t *testing.T) {
	header := `<tr><th>#</th><th>Clube</th></tr>`

	tests := []struct {
		name      string
		html      string
		wantRows  int
		wantParse bool
	}{
		{
			name:      "missing table",
			html:      `<html><body><table class="other"><tr><td>1</td></tr></table></body></html>`,
			wantParse: true,
		},
		{
			name:     "header only",
			html:     `<table class="items">` + header + `</table>`,
			wantRows: 0,
		},
		{
			name:     "empty table",
			html:     `<table class="items"></table>`,
			wantRows: 0,
		},
		{
			name: "short rows skipped",
			html: `<table class="items">` + header +
				`<tr><td>1</td><td>A</td><td></td><td>1</td><td>1</td><td>0</td><td>0</td><td>1:0</td><td>1</td><td>3</td></tr>` +
				`<tr><td>2</td><td>B</td><td>1</td></tr>` +
				`</table>`,
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ExtractStandings(parseHTML(t, tt.html), testBaseURL)
			if tt.wantParse {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected *ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractStandings() error = %v", err)
			}
			if rows == nil {
				t.Error("expected empty slice, got nil")
			}
			if len(rows) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(rows))
			}
		})
	}
}

func TestExtractSchedule_HeadingFallback(t *testing.T) {
	matches, err := ExtractSchedule(loadFixture(t, "schedule.html"), testBaseURL, "Campeonato Brasileiro Série A", "BRA1")
	if err != nil {
		t.Fatalf("ExtractSchedule failed: %v", err)
	}

	want := []record.MatchRow{
		{
			Round: "1", Date: "Sáb 15/04/2023", Time: "18:30",
			HomeTeam: "Fluminense Football Club", AwayTeam: "Bahia",
			Formation: "4-2-3-1", Coach: "Fernando Diniz", Audience: 36345, Result: "1:0",
			MatchLink: "https://www.transfermarkt.com.br/spielbericht/index/spielbericht/4000001",
		},
		{
			Round: "2", Date: "Dom 23/04/2023", Time: "16:00",
			HomeTeam: "Vasco da Gama", AwayTeam: "Fluminense",
			Formation: "4-3-3", Coach: "Fernando Diniz", Audience: 0, Result: "2:0",
		},
		{
			Round: "3", Date: "Sáb 29/04/2023", Time: "21:00",
			HomeTeam: "Fluminense", AwayTeam: "Grêmio",
			Formation: "4-2-3-1", Coach: "Fernando Diniz", Audience: 0, Result: "2:0",
		},
	}

	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d: %+v", len(want), len(matches), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, matches[i], want[i])
		}
	}
}

func TestExtractSchedule_ContainerByCode(t *testing.T) {
	matches, err := ExtractSchedule(loadFixture(t, "schedule.html"), testBaseURL, "Campeonato Brasileiro Série A", "BRC")
	if err != nil {
		t.Fatalf("ExtractSchedule failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match from the #BRC container, got %d", len(matches))
	}
	if matches[0].HomeTeam != "Fluminense FC" || matches[0].Audience != 60143 {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestExtractSchedule_NotFound(t *testing.T) {
	_, err := ExtractSchedule(loadFixture(t, "schedule.html"), testBaseURL, "Premier League", "GB1")

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "GB1") {
		t.Errorf("error should mention the league code: %v", err)
	}
}

func TestExtractSchedule_HeadingWithoutTable(t *testing.T) {
	doc := parseHTML(t, `<html><body><table><tr><td>before</td></tr></table><h2>Premier League</h2><p>No games</p></body></html>`)

	_, err := ExtractSchedule(doc, testBaseURL, "Premier League", "GB1")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestExtractSchedule_ContainerWithoutTable(t *testing.T) {
	doc := parseHTML(t, `<html><body>
<div id="GB1"><p>No fixtures yet</p></div>
<h2>Premier League</h2>
<table>
<tr><th>Md</th></tr>
<tr><td>1</td><td>12/08/23</td><td>16:00</td><td></td><td>Arsenal</td><td></td><td>Nottingham</td><td>4-3-3</td><td>Arteta</td><td>60.000</td><td>2:1</td></tr>
</table>
</body></html>`)

	matches, err := ExtractSchedule(doc, testBaseURL, "Premier League", "GB1")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v (%d matches)", err, len(matches))
	}
}

func TestColumnRules(t *testing.T) {
	doc := parseHTML(t, `<table><tr>
		<td id="titled"><a href="/x" title=" Title ">Text</a></td>
		<td id="untitled"><a href="/y">  Link text </a></td>
		<td id="plain">  Plain  </td>
		<td id="emptytitle"><a title="">Fallback</a></td>
	</tr></table>`)

	rules := []columnRule{anchorTitle("a"), anchorText("a"), cellText}
	tests := []struct {
		id   string
		want string
	}{
		{"titled", "Title"},
		{"untitled", "Link text"},
		{"plain", "Plain"},
		{"emptytitle", "Fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			cells := doc.Find("td#" + tt.id)
			c := column{name: tt.id, index: 0, rules: rules}
			if got := c.extract(cells); got != tt.want {
				t.Errorf("extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkResolver(t *testing.T) {
	links, err := newLinkResolver(testBaseURL)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		href string
		want string
	}{
		{"/arsenal/startseite/verein/11", testBaseURL + "/arsenal/startseite/verein/11"},
		{"https://www.transfermarkt.com.br/a", testBaseURL + "/a"},
		{"https://evil.example/a", ""},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := links.resolve(tt.href); got != tt.want {
				t.Errorf("resolve(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}
