package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

// sitemapEntry is an entry in a sitemap index.
type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

// urlEntry is a single URL in a sitemap.
type urlEntry struct {
	Loc string `xml:"loc"`
}

// Sitemap expands a seed that points at a sitemap: a plain urlset yields its
// entries; a sitemap index yields the entries of each child sitemap. Index
// traversal is the sitemap format's own nesting, not an extra discovery
// level — the strategy still runs exactly once per seed.
type Sitemap struct {
	client  *http.Client
	timeout time.Duration

	// Filter, when set, decides which child sitemaps of an index are
	// expanded. Nil expands all of them.
	Filter func(sitemapURL string) bool
}

// NewSitemap creates a Sitemap strategy using the given client.
// A nil client falls back to http.DefaultClient.
func NewSitemap(client *http.Client) *Sitemap {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sitemap{client: client, timeout: 10 * time.Second}
}

func (s *Sitemap) Name() string { return "sitemap" }

func (s *Sitemap) Discover(ctx context.Context, seed string) ([]string, error) {
	body, err := s.get(ctx, seed)
	if err != nil {
		return nil, err
	}

	// A sitemap index holds further sitemaps in its root.
	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		var urls []string
		for _, entry := range idx.Sitemaps {
			if entry.Loc == "" {
				continue
			}
			if s.Filter != nil && !s.Filter(entry.Loc) {
				continue
			}
			childBody, err := s.get(ctx, entry.Loc)
			if err != nil {
				slog.Warn("sitemap: child sitemap fetch failed, skipping",
					"seed", seed, "sitemap", entry.Loc, "error", err,
				)
				continue
			}
			urls = append(urls, parseURLSet(childBody)...)
		}
		return validated(urls), nil
	}

	urls := parseURLSet(body)
	if len(urls) == 0 {
		return nil, fmt.Errorf("sitemap: %s is neither a sitemap index nor a url set", seed)
	}
	return validated(urls), nil
}

// parseURLSet extracts <url><loc> entries from a regular sitemap.
func parseURLSet(body []byte) []string {
	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		return nil
	}
	urls := make([]string, 0, len(us.URLs))
	for _, u := range us.URLs {
		if u.Loc != "" {
			urls = append(urls, u.Loc)
		}
	}
	return urls
}

// validated drops malformed entries, preserving order.
func validated(urls []string) []string {
	out := urls[:0]
	for _, u := range urls {
		if err := ValidateURL(u); err != nil {
			slog.Debug("sitemap: dropping malformed url", "url", u, "error", err)
			continue
		}
		out = append(out, u)
	}
	return out
}

func (s *Sitemap) get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sitemap: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sitemap: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap: HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024)) // 5MB limit
	if err != nil {
		return nil, fmt.Errorf("sitemap: read body: %w", err)
	}
	return body, nil
}
