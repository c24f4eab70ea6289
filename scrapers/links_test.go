package scrapers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/scraper"
)

const cataloguePage = `<html><body>
<nav><a href="/home">Home</a></nav>
<div class="results">
  <a href="/listing/1">Acme Plumbing</a>
  <a href="https://shop.example.com/listing/2">  Best Roofing  </a>
  <a href="#top">back to top</a>
  <a href="mailto:info@example.com">email us</a>
  <a href="/listing/3"></a>
</div>
</body></html>`

func TestLinksScraper(t *testing.T) {
	spec := Links("")
	require.NoError(t, spec.Validate())
	assert.Equal(t, scraper.ModeRaw, spec.Mode)

	doc, err := scraper.NewRawDocument("https://shop.example.com/search", cataloguePage)
	require.NoError(t, err)

	rows, err := spec.Handler(context.Background(), "https://shop.example.com/search", doc)
	require.NoError(t, err)

	// Fragment-only, mailto and empty-text anchors are skipped; relative
	// hrefs are resolved; text is trimmed.
	require.Len(t, rows, 3)
	assert.Equal(t, "Home", rows[0]["name"])
	assert.Equal(t, "https://shop.example.com/home", rows[0]["url"])
	assert.Equal(t, "Acme Plumbing", rows[1]["name"])
	assert.Equal(t, "https://shop.example.com/listing/1", rows[1]["url"])
	assert.Equal(t, "Best Roofing", rows[2]["name"])

	for _, row := range rows {
		assert.NoError(t, spec.Columns.CheckRow(row))
	}
}

func TestLinksScraperScopedSelector(t *testing.T) {
	spec := Links(".results a[href]")

	doc, err := scraper.NewRawDocument("https://shop.example.com/search", cataloguePage)
	require.NoError(t, err)

	rows, err := spec.Handler(context.Background(), "https://shop.example.com/search", doc)
	require.NoError(t, err)

	// Scoped to the results block: the nav link is out.
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Plumbing", rows[0]["name"])
}

func TestLinksScraperNoAnchors(t *testing.T) {
	spec := Links("")
	doc, err := scraper.NewRawDocument("https://shop.example.com/empty", "<html><body><p>nothing</p></body></html>")
	require.NoError(t, err)

	rows, err := spec.Handler(context.Background(), "https://shop.example.com/empty", doc)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
