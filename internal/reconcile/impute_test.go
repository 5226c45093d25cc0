package reconcile

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

func audiences(values ...int) []record.MatchRow {
	rows := make([]record.MatchRow, len(values))
	for i, v := range values {
		rows[i] = record.MatchRow{Audience: v}
	}
	return rows
}

func ints(values []NullInt) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestImpute(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		in       []int
		want     []string
	}{
		{"ffill then bfill", StrategyFillForwardBackward, []int{0, 100, 0, 0, 300, 0}, []string{"100", "100", "100", "100", "300", "300"}},
		{"nothing missing", StrategyFillForwardBackward, []int{1, 2}, []string{"1", "2"}},
		{"nothing known", StrategyFillForwardBackward, []int{0, 0}, []string{"", ""}},
		{"mean", StrategyMean, []int{100, 0, 201}, []string{"100", "151", "201"}},
		{"median odd", StrategyMedian, []int{5, 0, 1, 9}, []string{"5", "5", "1", "9"}},
		{"median even", StrategyMedian, []int{10, 0, 20, 30, 40}, []string{"10", "25", "20", "30", "40"}},
		{"mode", StrategyMode, []int{7, 7, 0, 3}, []string{"7", "7", "7", "3"}},
		{"mode tie takes smallest", StrategyMode, []int{9, 3, 0}, []string{"9", "3", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ints(Impute(audiences(tt.in...), tt.strategy))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Impute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRawAttendance(t *testing.T) {
	got := ints(RawAttendance(audiences(0, 12, 0)))
	if fmt.Sprint(got) != fmt.Sprint([]string{"", "12", ""}) {
		t.Errorf("RawAttendance() = %v", got)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyFillForwardBackward, false},
		{"FFILL_BFILL", StrategyFillForwardBackward, false},
		{"median", StrategyMedian, false},
		{"interpolate", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMatchDate(t *testing.T) {
	tests := []struct {
		text   string
		season int
		want   string
		ok     bool
	}{
		{"Sáb 15/04/2023", 2023, "2023-04-15", true},
		{"12/08/22", 2022, "2022-08-12", true},
		{"Sa 24/08/63", 1963, "1963-08-24", true},
		{"1/2/99", 1998, "1999-02-01", true},
		{"23/08/69", 1969, "1969-08-23", true},
		{"09/05/70", 1969, "1970-05-09", true},
		{"15/05/00", 1999, "2000-05-15", true},
		{"20/12/99", 2000, "1999-12-20", true},
		{"12/08/22", 0, "2022-08-12", true},
		{"1/2/99", 0, "1999-02-01", true},
		{"31/02/2023", 2023, "", false},
		{"adiado", 2023, "", false},
		{"", 2023, "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.text, tt.season), func(t *testing.T) {
			got, ok := parseMatchDate(tt.text, tt.season)
			if ok != tt.ok {
				t.Fatalf("parseMatchDate(%q, %d) ok = %v, want %v", tt.text, tt.season, ok, tt.ok)
			}
			if ok && got.Format(time.DateOnly) != tt.want {
				t.Errorf("parseMatchDate(%q, %d) = %s, want %s", tt.text, tt.season, got.Format(time.DateOnly), tt.want)
			}
		})
	}
}

func TestSortChronological(t *testing.T) {
	in := []record.MatchRow{
		{Round: "a", Date: "unknown"},
		{Round: "b", Date: "Dom 20/08/2023"},
		{Round: "c", Date: "tbd"},
		{Round: "d", Date: "13/08/23"},
		{Round: "e", Date: "Sáb 19/08/2023"},
	}

	got := SortChronological(in, 2023)

	order := ""
	for _, m := range got {
		order += m.Round
	}
	if order != "debac" {
		t.Errorf("order = %q, want %q", order, "debac")
	}
	if in[0].Round != "a" {
		t.Error("input slice was modified")
	}
}

func TestSortChronological_AcrossCenturyPivot(t *testing.T) {
	in := []record.MatchRow{
		{Round: "34", Date: "Sa 09/05/70"},
		{Round: "1", Date: "Sa 23/08/69"},
		{Round: "2", Date: "Sa 30/08/69"},
	}

	got := SortChronological(in, 1969)

	var order []string
	for _, m := range got {
		order = append(order, m.Round)
	}
	if strings.Join(order, " ") != "1 2 34" {
		t.Errorf("order = %v, want [1 2 34]", order)
	}
}
