// Package scrapers holds the stock scrapers registered by default: generic
// extractors that cover the common cases without writing a handler.
package scrapers

import (
	"context"
	"net/url"
	"strings"

	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/table"
)

// Links returns the stock link scraper: one {name, url} row per anchor
// under the given selector ("a[href]" when empty). Relative hrefs are
// resolved against the page URL; anchors without text or target are
// skipped.
func Links(selector string) scraper.Spec {
	if selector == "" {
		selector = "a[href]"
	}
	return scraper.Spec{
		Name:    "links",
		Columns: table.Schema{"name", "url"},
		Mode:    scraper.ModeRaw,
		Handler: func(ctx context.Context, pageURL string, doc *scraper.Document) ([]table.Row, error) {
			base, err := url.Parse(pageURL)
			if err != nil {
				return nil, err
			}
			anchors, err := doc.FindAll(selector)
			if err != nil {
				return nil, err
			}

			var rows []table.Row
			for _, a := range anchors {
				name, err := a.Text()
				if err != nil {
					continue
				}
				href, err := a.Attr("href")
				if err != nil {
					continue
				}
				name = strings.TrimSpace(name)
				href = strings.TrimSpace(href)
				if name == "" || href == "" || strings.HasPrefix(href, "#") {
					continue
				}
				target, err := base.Parse(href)
				if err != nil {
					continue
				}
				if target.Scheme != "http" && target.Scheme != "https" {
					continue
				}
				rows = append(rows, table.Row{"name": name, "url": target.String()})
			}
			return rows, nil
		},
	}
}
