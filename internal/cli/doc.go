// Package cli implements the command-line interface for soccer-scraper.
//
// The cli package provides the Cobra-based CLI with three subcommands: scrape
// (fetch standings and schedules into the raw tree), process (reconcile the
// raw tree into the processed datasets) and all (both, in order). It wires
// configuration, logging, the scraper, the checkpoint store and the
// reconciliation engine together and reports a run summary as text or JSON.
package cli
