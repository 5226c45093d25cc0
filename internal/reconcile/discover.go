package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
	"github.com/pfrederiksen/soccer-scraper/internal/naming"
	"github.com/pfrederiksen/soccer-scraper/internal/record"
)

const (
	standingsDirName = "final_standings"
	gamesDirName     = "team_games"
)

// seasonInput locates the files of one season.
type seasonInput struct {
	key           record.SeasonKey
	standingsPath string
	gamesDir      string
}

// discover lists the standings files under {root}/{league}/{season}/final_standings,
// ordered by season key. It also returns the number of files skipped for
// bad names.
func (e *Engine) discover(root string) ([]seasonInput, int, error) {
	leagues, err := os.ReadDir(root)
	if err != nil {
		return nil, 0, fmt.Errorf("reading raw data directory: %w", err)
	}

	var (
		inputs  []seasonInput
		skipped int
	)
	for _, league := range leagues {
		if !league.IsDir() {
			continue
		}
		seasons, err := os.ReadDir(filepath.Join(root, league.Name()))
		if err != nil {
			if isFatal(err) {
				return nil, 0, fmt.Errorf("reading league directory: %w", err)
			}
			e.log.Warn("Skipping unreadable league directory", logger.Fields{"league": league.Name(), "cause": err.Error()})
			continue
		}

		for _, season := range seasons {
			if !season.IsDir() {
				continue
			}
			seasonDir := filepath.Join(root, league.Name(), season.Name())
			standingsDir := filepath.Join(seasonDir, standingsDirName)

			files, err := os.ReadDir(standingsDir)
			if err != nil {
				if isFatal(err) {
					return nil, 0, fmt.Errorf("reading standings directory: %w", err)
				}
				e.log.Debug("Season has no standings directory", logger.Fields{"dir": seasonDir})
				continue
			}

			for _, f := range files {
				if f.IsDir() || !strings.HasSuffix(f.Name(), ".csv") {
					continue
				}
				path := filepath.Join(standingsDir, f.Name())

				meta, err := naming.ParseFilename(f.Name())
				if err != nil || meta.Kind != naming.KindStandings {
					e.log.Warn("Skipping standings file with unexpected name", logger.Fields{"file": path})
					e.metrics.IncrCounter("reconcile.files_skipped")
					skipped++
					continue
				}

				inputs = append(inputs, seasonInput{
					key:           record.SeasonKey{League: meta.League, Season: meta.Season},
					standingsPath: path,
					gamesDir:      filepath.Join(seasonDir, gamesDirName),
				})
			}
		}
	}

	sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].key.Less(inputs[j].key) })
	return inputs, skipped, nil
}
