// Package engine implements the raw fetch mode: plain HTTP retrieval of page
// markup, with a Chrome TLS fingerprint and per-host pacing. Rendered fetches
// live in the scraper package, next to the browser they depend on.
package engine

import "context"

// Engine retrieves the markup for a URL.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch retrieves the page content for the given URL.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetchResult is the output of a successful fetch.
type FetchResult struct {
	// URL is the URL that was requested.
	URL string

	// HTML is the response markup.
	HTML string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// FinalURL is the URL after redirects.
	FinalURL string
}
