package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseAudience(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"45.123", 45123},
		{"1.234.567", 1234567},
		{"812", 812},
		{"  9.000 ", 9000},
		{"", 0},
		{"-", 0},
		{"?", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ParseAudience(tt.text); got != tt.want {
				t.Errorf("ParseAudience(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSeasonKey(t *testing.T) {
	key := SeasonKey{League: "premierleague", Season: 2022}
	if key.String() != "premierleague/2022" {
		t.Fatalf("String() = %q", key.String())
	}

	parsed, err := ParseSeasonKey(key.String())
	if err != nil {
		t.Fatalf("ParseSeasonKey() error = %v", err)
	}
	if parsed != key {
		t.Errorf("ParseSeasonKey() = %+v, want %+v", parsed, key)
	}

	for _, bad := range []string{"", "premierleague", "/2022", "premierleague/20x2"} {
		if _, err := ParseSeasonKey(bad); err == nil {
			t.Errorf("ParseSeasonKey(%q) expected error", bad)
		}
	}

	if !(SeasonKey{"a", 2020}).Less(SeasonKey{"a", 2021}) {
		t.Error("expected earlier season to sort first")
	}
	if !(SeasonKey{"a", 2024}).Less(SeasonKey{"b", 1990}) {
		t.Error("expected league to dominate ordering")
	}
}

func TestReadStandings_DrawAlias(t *testing.T) {
	data := "position,team,played,won,draw,lost,goal_ratio,goal_difference,points,team_url\n" +
		"1,Arsenal,38,26,6,6,88:43,45,84,https://www.transfermarkt.com.br/arsenal/startseite/verein/11/saison_id/2022\n"

	rows, err := ReadStandings(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadStandings() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Drawn != "6" {
		t.Errorf("Drawn = %q, want %q", rows[0].Drawn, "6")
	}
	if rows[0].Team != "Arsenal" {
		t.Errorf("Team = %q, want Arsenal", rows[0].Team)
	}
}

func TestReadStandings_Errors(t *testing.T) {
	if _, err := ReadStandings(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := ReadStandings(strings.NewReader("position,points\n1,80\n")); err == nil {
		t.Error("expected error for missing team column")
	}
	if _, err := ReadStandings(strings.NewReader("position,team\n1,\"Arsenal\n")); err == nil {
		t.Error("expected error for malformed quoting")
	}
}

func TestReadStandings_HeaderOnly(t *testing.T) {
	rows, err := ReadStandings(strings.NewReader(strings.Join(StandingsHeader, ",") + "\n"))
	if err != nil {
		t.Fatalf("ReadStandings() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestMatchesRoundTrip(t *testing.T) {
	in := []MatchRow{
		{
			Round: "1", Date: "Sáb 12/08/2023", Time: "16:00", HomeTeam: "Arsenal FC",
			AwayTeam: "Nottingham Forest", Formation: "4-3-3", Coach: "Mikel Arteta",
			Audience: 60192, Result: "2:1", MatchLink: "https://www.transfermarkt.com.br/spielbericht/index/spielbericht/4095452",
		},
		{Round: "2", Date: "Seg 21/08/2023", HomeTeam: "Crystal Palace", AwayTeam: "Arsenal FC", Result: "0:1"},
	}

	var buf bytes.Buffer
	if err := WriteMatches(&buf, in); err != nil {
		t.Fatalf("WriteMatches() error = %v", err)
	}

	out, err := ReadMatches(&buf)
	if err != nil {
		t.Fatalf("ReadMatches() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestReadMatches_StoredAudience(t *testing.T) {
	data := "date,home_team,away_team,result,audience\n" +
		"12/08/23,A,B,1:0,45123.0\n" +
		"13/08/23,C,D,0:0,\n" +
		"14/08/23,E,F,2:2,3.500\n"

	rows, err := ReadMatches(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadMatches() error = %v", err)
	}

	want := []int{45123, 0, 3500}
	for i, w := range want {
		if rows[i].Audience != w {
			t.Errorf("row %d audience = %d, want %d", i, rows[i].Audience, w)
		}
	}
}

func TestReadMatches_MissingIdentityColumn(t *testing.T) {
	if _, err := ReadMatches(strings.NewReader("date,home_team,result\n1,2,3\n")); err == nil {
		t.Error("expected error for missing away_team column")
	}
}
