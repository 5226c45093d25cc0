// Package record defines the rows produced by the scraper and consumed by the
// reconciliation engine, together with their raw CSV encoding.
//
// Rows are written once by extraction and never mutated afterwards; derived
// columns are added by the reconcile package on its own output types.
package record
