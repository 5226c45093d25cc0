// Package scraper fetches pages from the statistics site and extracts league
// standings and team schedules from their HTML tables.
//
// Fetching is polite and sequential: every attempt is preceded by a random
// delay, the request rate is capped, and only rate-limit (429), unavailable
// (503) and transport failures are retried, with exponential backoff. Other
// HTTP errors fail at once.
//
// Extraction targets the site's markup conventions directly and reports a
// ParseError when an expected table is missing.
package scraper
