package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pfrederiksen/soccer-scraper/internal/naming"
	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

const (
	standingsDirName = "final_standings"
	gamesDirName     = "team_games"
)

// Layout handles the raw CSV tree of a scrape.
type Layout struct {
	Root string
}

// NewLayout creates the root directory if needed. A leading ~/ is expanded
// to the user's home directory.
func NewLayout(root string) (*Layout, error) {
	if strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		root = filepath.Join(home, root[2:])
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Layout{Root: root}, nil
}

// SeasonDir returns {root}/{league}/{season}.
func (l *Layout) SeasonDir(league string, season int) string {
	return filepath.Join(l.Root, league, strconv.Itoa(season))
}

func (l *Layout) StandingsDir(league string, season int) string {
	return filepath.Join(l.SeasonDir(league, season), standingsDirName)
}

func (l *Layout) GamesDir(league string, season int) string {
	return filepath.Join(l.SeasonDir(league, season), gamesDirName)
}

func (l *Layout) StandingsPath(league string, season int) string {
	return filepath.Join(l.StandingsDir(league, season), naming.StandingsFilename(league, season))
}

// GamesPath sanitizes team before building the filename.
func (l *Layout) GamesPath(league string, season int, team string) string {
	return filepath.Join(l.GamesDir(league, season), naming.GamesFilename(league, season, naming.Sanitize(team)))
}

// EnsureSeason creates the standings and team games directories of a season.
func (l *Layout) EnsureSeason(league string, season int) error {
	for _, dir := range []string{l.StandingsDir(league, season), l.GamesDir(league, season)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating season directory: %w", err)
		}
	}
	return nil
}

// WriteStandings writes the standings CSV of a season and returns its path.
func (l *Layout) WriteStandings(league string, season int, rows []record.StandingsRow) (string, error) {
	var buf bytes.Buffer
	if err := record.WriteStandings(&buf, rows); err != nil {
		return "", fmt.Errorf("encoding standings: %w", err)
	}

	path := l.StandingsPath(league, season)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("writing standings: %w", err)
	}
	return path, nil
}

// WriteGames writes one team's games CSV and returns its path.
func (l *Layout) WriteGames(league string, season int, team string, rows []record.MatchRow) (string, error) {
	if naming.Sanitize(team) == "" {
		return "", fmt.Errorf("team name %q is empty after sanitizing", team)
	}

	var buf bytes.Buffer
	if err := record.WriteMatches(&buf, rows); err != nil {
		return "", fmt.Errorf("encoding games: %w", err)
	}

	path := l.GamesPath(league, season, team)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("writing games: %w", err)
	}
	return path, nil
}

// writeFileAtomic writes to a temporary file in the same directory and
// renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
