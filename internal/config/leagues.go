package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/soccer-scraper/internal/naming"
)

//go:embed leagues.yaml
var leaguesYAML embed.FS

// League describes one competition on the source site.
type League struct {
	Key             string `yaml:"key"`
	Name            string `yaml:"name"` // heading text used to locate schedule tables
	Slug            string `yaml:"slug"`
	Code            string `yaml:"code"` // competition code, also the schedule container id
	StartYear       int    `yaml:"start_year"`
	URLSeasonOffset int    `yaml:"url_season_offset,omitempty"`
	Disabled        bool   `yaml:"disabled,omitempty"`
}

// URLSeason returns the saison_id used in URLs for a season year.
func (l League) URLSeason(season int) int {
	return season + l.URLSeasonOffset
}

// DirName is the league name used in raw data paths and filenames.
func (l League) DirName() string {
	return naming.Sanitize(l.Slug)
}

// Registry is the ordered list of configured leagues.
type Registry struct {
	Leagues []League `yaml:"leagues"`
}

// LoadRegistry reads the league registry. An empty path selects the
// embedded leagues.yaml.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = leaguesYAML.ReadFile("leagues.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading league registry: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing league registry: %w", err)
	}

	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	seen := make(map[string]bool, len(r.Leagues))
	for i, l := range r.Leagues {
		if l.Key == "" || l.Name == "" || l.Slug == "" || l.Code == "" {
			return fmt.Errorf("league #%d: key, name, slug and code are required", i+1)
		}
		if seen[l.Key] {
			return fmt.Errorf("duplicate league key: %s", l.Key)
		}
		seen[l.Key] = true
	}
	return nil
}

// Select returns the enabled leagues, restricted to keys when any are given.
func (r *Registry) Select(keys []string) ([]League, error) {
	if len(keys) == 0 {
		out := make([]League, 0, len(r.Leagues))
		for _, l := range r.Leagues {
			if !l.Disabled {
				out = append(out, l)
			}
		}
		return out, nil
	}

	byKey := make(map[string]League, len(r.Leagues))
	for _, l := range r.Leagues {
		byKey[l.Key] = l
	}

	out := make([]League, 0, len(keys))
	for _, k := range keys {
		l, ok := byKey[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return nil, fmt.Errorf("unknown league: %s", k)
		}
		out = append(out, l)
	}
	return out, nil
}
