package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/naming"
	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

// StandingsRecord is a standings row enriched with its season, identifiers
// and URL validity. Counts are coerced to integers; values that do not parse
// are missing.
type StandingsRecord struct {
	Row            record.StandingsRow
	Position       NullInt
	Played         NullInt
	Won            NullInt
	Drawn          NullInt
	Lost           NullInt
	GoalDifference NullInt
	Points         NullInt

	TeamSanitized string
	League        string
	Season        int
	SourceCSVFile string
	SourceID      string
	ID            string
	IsValidURL    bool
}

// GameRecord is a deduplicated match with its imputed attendance.
type GameRecord struct {
	Row             record.MatchRow
	League          string
	Season          int
	HomeSanitized   string
	AwaySanitized   string
	ID              string
	SourceID        string
	AudienceImputed NullInt
}

// SeasonSummary holds the per-season metrics. Seasons whose schedules could
// not be loaded have no summary.
type SeasonSummary struct {
	SourceID               string
	SourceCSVFile          string
	League                 string
	Season                 int
	HasAllTeamsFiles       bool
	NumTotalTeams          int
	NumTotalGames          int
	NumNullAttendanceGames int
	PctNullAttendanceGames float64
	IsValidURL             bool
	IsDoubleRounded        bool
	IsValidAttendance      bool
	TotalAttendance        NullInt // imputed total, valid seasons only
	MeanAttendance         float64 // imputed mean, valid seasons only
}

// Key returns the season key of the summary.
func (s *SeasonSummary) Key() record.SeasonKey {
	return record.SeasonKey{League: s.League, Season: s.Season}
}

// IsValid reports whether the season passes every quality flag.
func (s *SeasonSummary) IsValid() bool {
	return s != nil && s.IsValidURL && s.IsDoubleRounded && s.IsValidAttendance
}

// defaultSummary is joined onto standings of seasons without a summary.
// Missing data never reads as valid.
func defaultSummary(key record.SeasonKey) *SeasonSummary {
	return &SeasonSummary{
		League:                 key.League,
		Season:                 key.Season,
		PctNullAttendanceGames: 100.0,
	}
}

type seasonResult struct {
	key       record.SeasonKey
	standings []StandingsRecord
	summary   *SeasonSummary
	games     []GameRecord
	skipped   int
}

// processSeason loads one season. It returns (nil, nil) when the standings
// file cannot be used, and an error only for fatal conditions.
func (e *Engine) processSeason(ctx context.Context, in seasonInput) (*seasonResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := logger.Fields{"league": in.key.League, "season": in.key.Season, "file": filepath.Base(in.standingsPath)}
	e.log.Info("Processing season", fields)

	rows, err := readFile(in.standingsPath, record.ReadStandings)
	if err != nil {
		if isFatal(err) {
			return nil, err
		}
		e.log.Warn("Skipping unreadable standings file", logger.Fields{"file": in.standingsPath, "cause": err.Error()})
		e.metrics.IncrCounter("reconcile.files_skipped")
		return &seasonResult{key: in.key, skipped: 1}, nil
	}
	if len(rows) == 0 {
		e.log.Warn("Skipping empty standings file", fields)
		e.metrics.IncrCounter("reconcile.files_skipped")
		return &seasonResult{key: in.key, skipped: 1}, nil
	}

	res := &seasonResult{key: in.key}
	res.standings = enrichStandings(in, rows)

	matches, teamFiles, skipped, err := e.loadGames(in)
	if err != nil {
		return nil, err
	}
	res.skipped += skipped

	if teamFiles < 0 {
		e.log.Warn("Team games directory not found, no season summary", fields)
		return res, nil
	}
	if len(matches) == 0 {
		e.log.Warn("No game data found, no season summary", fields)
		return res, nil
	}

	res.summary, res.games = summarizeSeason(in, res.standings, matches, teamFiles, e.opts.Strategy)
	return res, nil
}

func enrichStandings(in seasonInput, rows []record.StandingsRow) []StandingsRecord {
	sourceFile := filepath.Base(in.standingsPath)
	sourceID := naming.GenerateID(sourceFile)

	out := make([]StandingsRecord, len(rows))
	for i, row := range rows {
		sanitized := naming.Sanitize(row.Team)
		out[i] = StandingsRecord{
			Row:            row,
			Position:       coerceInt(row.Position),
			Played:         coerceInt(row.Played),
			Won:            coerceInt(row.Won),
			Drawn:          coerceInt(row.Drawn),
			Lost:           coerceInt(row.Lost),
			GoalDifference: coerceInt(row.GoalDifference),
			Points:         coerceInt(row.Points),
			TeamSanitized:  sanitized,
			League:         in.key.League,
			Season:         in.key.Season,
			SourceCSVFile:  sourceFile,
			SourceID:       sourceID,
			ID:             naming.StandingsRowID(sanitized, in.key.Season, in.key.League),
			IsValidURL:     ValidURLYear(row.TeamURL, in.key.Season),
		}
	}
	return out
}

// loadGames reads every team file of a season in filename order. teamFiles
// is -1 when the season has no team games directory.
func (e *Engine) loadGames(in seasonInput) (matches []record.MatchRow, teamFiles, skipped int, err error) {
	entries, err := os.ReadDir(in.gamesDir)
	if err != nil {
		if isFatal(err) {
			return nil, 0, 0, fmt.Errorf("reading %s: %w", in.gamesDir, err)
		}
		return nil, -1, 0, nil
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(in.gamesDir, entry.Name())

		meta, err := naming.ParseFilename(entry.Name())
		if err != nil || meta.Kind != naming.KindGames {
			e.log.Warn("Skipping file with unexpected name", logger.Fields{"file": path})
			e.metrics.IncrCounter("reconcile.files_skipped")
			skipped++
			continue
		}
		teamFiles++

		rows, err := readFile(path, record.ReadMatches)
		if err != nil {
			if isFatal(err) {
				return nil, 0, 0, err
			}
			e.log.Warn("Skipping unreadable team games file", logger.Fields{"file": path, "cause": err.Error()})
			e.metrics.IncrCounter("reconcile.files_skipped")
			skipped++
			continue
		}
		matches = append(matches, rows...)
	}
	return matches, teamFiles, skipped, nil
}

// summarizeSeason computes the season metrics and the unified game records.
func summarizeSeason(in seasonInput, standings []StandingsRecord, matches []record.MatchRow, teamFiles int, strategy Strategy) (*SeasonSummary, []GameRecord) {
	sourceFile := filepath.Base(in.standingsPath)
	distinct := SortChronological(Dedupe(matches), in.key.Season)
	att := Attendance(distinct)

	validURL := true
	for _, s := range standings {
		validURL = validURL && s.IsValidURL
	}

	summary := &SeasonSummary{
		SourceID:               naming.GenerateID(sourceFile),
		SourceCSVFile:          sourceFile,
		League:                 in.key.League,
		Season:                 in.key.Season,
		HasAllTeamsFiles:       teamFiles == len(standings),
		NumTotalTeams:          len(standings),
		NumTotalGames:          len(distinct),
		NumNullAttendanceGames: att.Null,
		PctNullAttendanceGames: att.NullPct,
		IsValidURL:             validURL,
		IsDoubleRounded:        IsDoubleRounded(len(distinct), len(standings)),
		IsValidAttendance:      att.Valid,
	}

	var audience []NullInt
	if att.Valid {
		audience = Impute(distinct, strategy)
		total, known := 0, 0
		for _, a := range audience {
			if a.Valid {
				total += a.Int
				known++
			}
		}
		if known > 0 {
			summary.TotalAttendance = NullInt{Int: total, Valid: true}
			summary.MeanAttendance = round2(float64(total) / float64(known))
		}
	} else {
		audience = RawAttendance(distinct)
	}

	games := make([]GameRecord, len(distinct))
	for i, m := range distinct {
		home, away := naming.Sanitize(m.HomeTeam), naming.Sanitize(m.AwayTeam)
		games[i] = GameRecord{
			Row:             m,
			League:          in.key.League,
			Season:          in.key.Season,
			HomeSanitized:   home,
			AwaySanitized:   away,
			ID:              naming.MatchRowID(m.Round, home, away, in.key.Season, in.key.League),
			SourceID:        summary.SourceID,
			AudienceImputed: audience[i],
		}
	}
	return summary, games
}

// coerceInt parses counts such as "38", "+61", "-3" or "1.234".
func coerceInt(text string) NullInt {
	text = strings.TrimPrefix(strings.TrimSpace(text), "+")
	text = strings.ReplaceAll(text, ".", "")
	if text == "" {
		return NullInt{}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return NullInt{}
	}
	return NullInt{Int: n, Valid: true}
}

func readFile[T any](path string, decode func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

// isFatal reports errors that skipping a file cannot work around.
func isFatal(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
