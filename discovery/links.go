package discovery

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Links expands a seed by fetching it and collecting same-host anchor
// targets, in document order, deduplicated. Only the seed page itself is
// fetched: linked pages are returned for the executor, never followed.
type Links struct {
	timeout   time.Duration
	userAgent string
}

// NewLinks creates a Links strategy.
func NewLinks(userAgent string) *Links {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}
	return &Links{timeout: 15 * time.Second, userAgent: userAgent}
}

func (l *Links) Name() string { return "links" }

func (l *Links) Discover(ctx context.Context, seed string) ([]string, error) {
	seedURL, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("links: parse seed %s: %w", seed, err)
	}

	c := colly.NewCollector(
		colly.UserAgent(l.userAgent),
		colly.MaxDepth(1),
		colly.AllowedDomains(seedURL.Hostname()),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(l.timeout)

	var urls []string
	seen := make(map[string]struct{})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		u, err := url.Parse(link)
		if err != nil || u.Hostname() != seedURL.Hostname() {
			return
		}
		u.Fragment = ""
		link = u.String()
		if link == seed {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		if err := ValidateURL(link); err != nil {
			return
		}
		seen[link] = struct{}{}
		urls = append(urls, link)
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(seed); err != nil {
		return nil, fmt.Errorf("links: visit %s: %w", seed, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, fmt.Errorf("links: fetch %s: %w", seed, visitErr)
	}
	return urls, nil
}
