package reconcile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

// NullInt is an integer that may be missing.
type NullInt struct {
	Int   int
	Valid bool
}

// String renders missing values as the empty string.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

// Strategy selects how unknown attendance is filled.
type Strategy string

const (
	StrategyFillForwardBackward Strategy = "ffill_bfill"
	StrategyMean                Strategy = "mean"
	StrategyMedian              Strategy = "median"
	StrategyMode                Strategy = "mode"
)

// ParseStrategy validates a strategy name. Empty selects ffill_bfill.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyFillForwardBackward, nil
	case StrategyFillForwardBackward, StrategyMean, StrategyMedian, StrategyMode:
		return st, nil
	default:
		return "", fmt.Errorf("unknown imputation strategy: %s", s)
	}
}

var matchDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)

// parseMatchDate finds a dd/mm/yy or dd/mm/yyyy date inside text such as
// "Sáb 15/04/2023". A two-digit year resolves to the century that puts it
// closest to season; without a season, years below 70 are in the 2000s.
func parseMatchDate(text string, season int) (time.Time, bool) {
	m := matchDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year = expandYear(year, season)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func expandYear(yy, season int) int {
	if season <= 0 {
		if yy < 70 {
			return 2000 + yy
		}
		return 1900 + yy
	}
	best := season - season%100 + yy
	for _, y := range []int{best - 100, best + 100} {
		if abs(y-season) < abs(best-season) {
			best = y
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SortChronological returns a copy of matches ordered by date. Two-digit
// years are read relative to season. Matches whose date cannot be parsed
// follow all dated ones in their original order.
func SortChronological(matches []record.MatchRow, season int) []record.MatchRow {
	type dated struct {
		m  record.MatchRow
		t  time.Time
		ok bool
	}
	tmp := make([]dated, len(matches))
	for i, m := range matches {
		t, ok := parseMatchDate(m.Date, season)
		tmp[i] = dated{m, t, ok}
	}

	sort.SliceStable(tmp, func(i, j int) bool {
		a, b := tmp[i], tmp[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.t.Before(b.t)
	})

	out := make([]record.MatchRow, len(tmp))
	for i, d := range tmp {
		out[i] = d.m
	}
	return out
}

// Impute returns the attendance column of matches with unknown values
// filled by strategy. matches must already be in chronological order for
// ffill_bfill. If no attendance is known at all the column stays missing.
func Impute(matches []record.MatchRow, strategy Strategy) []NullInt {
	out := make([]NullInt, len(matches))
	known := make([]int, 0, len(matches))
	for i, m := range matches {
		if m.Audience > 0 {
			out[i] = NullInt{Int: m.Audience, Valid: true}
			known = append(known, m.Audience)
		}
	}
	if len(known) == 0 || len(known) == len(matches) {
		return out
	}

	switch strategy {
	case StrategyMean:
		fillMissing(out, meanOf(known))
	case StrategyMedian:
		fillMissing(out, medianOf(known))
	case StrategyMode:
		fillMissing(out, modeOf(known))
	default:
		fillForwardBackward(out)
	}
	return out
}

// RawAttendance returns the attendance column without imputation.
func RawAttendance(matches []record.MatchRow) []NullInt {
	out := make([]NullInt, len(matches))
	for i, m := range matches {
		if m.Audience > 0 {
			out[i] = NullInt{Int: m.Audience, Valid: true}
		}
	}
	return out
}

func fillForwardBackward(values []NullInt) {
	var last NullInt
	for i := range values {
		if values[i].Valid {
			last = values[i]
		} else if last.Valid {
			values[i] = last
		}
	}

	var next NullInt
	for i := len(values) - 1; i >= 0; i-- {
		if values[i].Valid {
			next = values[i]
		} else if next.Valid {
			values[i] = next
		}
	}
}

func fillMissing(values []NullInt, v int) {
	for i := range values {
		if !values[i].Valid {
			values[i] = NullInt{Int: v, Valid: true}
		}
	}
}

func meanOf(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

func medianOf(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
}

// modeOf breaks ties by the smallest value.
func modeOf(values []int) int {
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
