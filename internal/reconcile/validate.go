package reconcile

import (
	"math"
	"regexp"
	"strconv"

	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

// MaxNullAttendancePct is the exclusive upper bound on the share of matches
// with unknown attendance for a season to count as valid.
const MaxNullAttendancePct = 5.0

var saisonIDPattern = regexp.MustCompile(`saison_id/(\d{4})`)

// ValidURLYear reports whether url embeds a saison_id year that is not after
// season. URLs without a saison_id are invalid.
func ValidURLYear(url string, season int) bool {
	m := saisonIDPattern.FindStringSubmatch(url)
	if m == nil {
		return false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return year <= season
}

// Dedupe returns matches with repeated (date, home, away, result) tuples
// removed, keeping the first occurrence and the input order.
func Dedupe(matches []record.MatchRow) []record.MatchRow {
	seen := make(map[record.MatchKey]bool, len(matches))
	out := make([]record.MatchRow, 0, len(matches))
	for _, m := range matches {
		k := m.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}

// IsDoubleRounded reports whether games is the match count of a full
// home-and-away season between teams clubs.
func IsDoubleRounded(games, teams int) bool {
	return games == teams*(teams-1)
}

// AttendanceStats counts matches with unknown attendance.
type AttendanceStats struct {
	Games   int
	Null    int
	NullPct float64 // rounded to two decimals, 0 when there are no games
	Valid   bool
}

// Attendance computes AttendanceStats. An audience of 0 means unknown.
func Attendance(matches []record.MatchRow) AttendanceStats {
	s := AttendanceStats{Games: len(matches)}
	for _, m := range matches {
		if m.Audience <= 0 {
			s.Null++
		}
	}
	if s.Games > 0 {
		s.NullPct = round2(100 * float64(s.Null) / float64(s.Games))
	}
	s.Valid = s.NullPct < MaxNullAttendancePct
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
