// Package storage owns the on-disk state of a scrape.
//
// Layout maps (league, season) pairs onto the raw data tree:
//
//	{root}/{league}/{season}/final_standings/{league}_{season}_standings.csv
//	{root}/{league}/{season}/team_games/{league}_{season}_{team}.csv
//
// CheckpointStore persists the set of seasons that were scraped completely,
// so an interrupted run resumes where it stopped. It is a JSON file written
// atomically after each completed season.
package storage
