// Package discovery expands the seed URL set at run start. A strategy is
// invoked at most once per seed, before any fetch is scheduled; its failures
// are attributed to the seed and never abort the run.
package discovery

import (
	"context"
	"fmt"
	"net/url"
)

// Strategy yields additional URLs to visit for one seed.
type Strategy interface {
	// Name identifies the strategy in the run API (e.g. "sitemap", "links").
	Name() string

	// Discover returns zero or more well-formed URLs derived from the seed,
	// in a deterministic order. The same seed document always yields the
	// same sequence.
	Discover(ctx context.Context, seed string) ([]string, error)
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("discovery: malformed url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("discovery: unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("discovery: missing host in %q", raw)
	}
	return nil
}
