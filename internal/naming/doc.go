// Package naming derives and parses the canonical identifiers of the raw data
// corpus: sanitized league and team names, the {league}_{season}_standings and
// {league}_{season}_{team} filenames, and the SHA-256 row identifiers that make
// outputs of independent runs joinable.
package naming
