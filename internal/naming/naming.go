package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind is the type of raw file a name refers to.
type Kind string

const (
	KindStandings Kind = "standings"
	KindGames     Kind = "games"
)

var (
	standingsPattern = regexp.MustCompile(`^([a-z0-9]+)_(\d{4})_standings$`)
	gamesPattern     = regexp.MustCompile(`^([a-z0-9]+)_(\d{4})_([a-z0-9]+)$`)

	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators  = regexp.MustCompile(`[\s_-]+`)
)

// Metadata is what a raw filename encodes.
type Metadata struct {
	Kind   Kind
	League string
	Season int
	Team   string // sanitized team name, empty for standings files
}

// MetadataError reports a filename that does not follow the naming contract.
// Callers skip the file rather than abort the run.
type MetadataError struct {
	Filename string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("filename does not match expected patterns: %s", e.Filename)
}

// Sanitize turns a display name into a single lowercase ASCII word:
// accents are removed, punctuation is dropped and spaces, underscores and
// hyphens are collapsed away. "Atlético Mineiro" becomes "atleticomineiro".
func Sanitize(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, text)
	if err != nil {
		ascii = text
	}

	ascii = strings.ToLower(ascii)
	ascii = unsafeChars.ReplaceAllString(ascii, "")
	return separators.ReplaceAllString(ascii, "")
}

// StandingsFilename returns the name of the standings file for a season.
func StandingsFilename(league string, season int) string {
	return fmt.Sprintf("%s_%d_standings.csv", league, season)
}

// GamesFilename returns the name of a team's games file for a season.
func GamesFilename(league string, season int, team string) string {
	return fmt.Sprintf("%s_%d_%s.csv", league, season, team)
}

// ParseFilename extracts league, season and (for games files) team from a
// raw file path. The stem must match one of the two patterns exactly.
func ParseFilename(path string) (Metadata, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if m := standingsPattern.FindStringSubmatch(stem); m != nil {
		season, _ := strconv.Atoi(m[2])
		return Metadata{Kind: KindStandings, League: m[1], Season: season}, nil
	}

	if m := gamesPattern.FindStringSubmatch(stem); m != nil {
		season, _ := strconv.Atoi(m[2])
		return Metadata{Kind: KindGames, League: m[1], Season: season, Team: m[3]}, nil
	}

	return Metadata{}, &MetadataError{Filename: base}
}

// GenerateID returns the lowercase hex SHA-256 of data.
func GenerateID(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// StandingsRowID identifies a team's standings row in one season.
func StandingsRowID(team string, season int, league string) string {
	return GenerateID(fmt.Sprintf("%s_%d_%s", team, season, league))
}

// MatchRowID identifies a match row in one season.
func MatchRowID(round, homeTeam, awayTeam string, season int, league string) string {
	return GenerateID(fmt.Sprintf("%s_%s_%s_%d_%s", round, homeTeam, awayTeam, season, league))
}
