package scraper

import (
	"fmt"
	"net/http"
)

// FetchError is returned when a page could not be fetched, either because a
// non-retriable status was received or because all attempts were used up.
type FetchError struct {
	URL        string
	StatusCode int // last HTTP status seen, 0 for transport failures
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d after %d attempt(s): %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetching %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-2xx response status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d (%s)", e.Code, http.StatusText(e.Code))
}

// ParseError is returned when the HTML does not contain the expected structure.
type ParseError struct {
	Element string
	Detail  string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s not found: %s", e.Element, e.Detail)
	}
	return fmt.Sprintf("%s not found", e.Element)
}
