package scrapers

import (
	"context"
	"fmt"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	mdtable "github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/table"
)

// Below this extracted text length readability is assumed to have missed
// the main content.
const minArticleLength = 50

// Article returns the stock article scraper: the Readability algorithm
// pulls the main content out of the page, which is then rendered to
// Markdown. One row per page.
func Article() scraper.Spec {
	conv := newMarkdownConverter()
	return scraper.Spec{
		Name:    "article",
		Columns: table.Schema{"url", "title", "byline", "excerpt", "markdown"},
		Mode:    scraper.ModeRaw,
		Handler: func(ctx context.Context, pageURL string, doc *scraper.Document) ([]table.Row, error) {
			markup, err := doc.HTML()
			if err != nil {
				return nil, err
			}
			parsed, err := nurl.Parse(pageURL)
			if err != nil {
				return nil, err
			}

			article, err := readability.FromReader(strings.NewReader(markup), parsed)
			if err != nil {
				return nil, fmt.Errorf("readability: %w", err)
			}
			if len(strings.TrimSpace(article.TextContent)) < minArticleLength {
				return nil, fmt.Errorf("readability: no main content found at %s", pageURL)
			}

			md, err := conv.ConvertString(article.Content, converter.WithDomain(parsed.Host))
			if err != nil {
				return nil, fmt.Errorf("markdown: %w", err)
			}

			return []table.Row{{
				"url":      pageURL,
				"title":    article.Title,
				"byline":   article.Byline,
				"excerpt":  article.Excerpt,
				"markdown": strings.TrimSpace(md),
			}}, nil
		},
	}
}

// newMarkdownConverter builds the shared converter: the base plugin strips
// script/style/head noise, commonmark renders standard Markdown, and the
// table plugin keeps tabular structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			mdtable.NewTablePlugin(
				mdtable.WithCellPaddingBehavior(mdtable.CellPaddingBehaviorMinimal),
			),
		),
	)
}
