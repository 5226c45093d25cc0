// Package reconcile turns the raw CSV tree written by a scrape into unified,
// validated datasets.
//
// For every season it loads the standings file and all team schedule files,
// deduplicates matches (each one appears in both teams' files), and derives
// data-quality flags:
//
//   - is_valid_url: every team URL points at a saison_id not after the season
//   - is_double_rounded: the season has exactly n*(n-1) distinct matches
//   - is_valid_attendance: fewer than 5% of matches have unknown attendance
//
// Missing attendance is imputed only for seasons with valid attendance.
// Quality problems never raise errors; they are carried as columns so
// consumers can filter. Unreadable or misnamed files are logged and skipped.
// Only permission errors and failures writing outputs stop a run.
package reconcile
