// Package pipeline drives a scrape: for every selected league and season it
// fetches the standings page, writes the standings CSV, then fetches and
// writes each team's schedule.
//
// Fetching is strictly sequential. Seasons already recorded in the
// checkpoint store are skipped, and a season is recorded only when its
// standings and every team schedule were fetched. Fixed pauses between
// seasons and between leagues keep the request rate low; all waits honour
// context cancellation.
package pipeline
