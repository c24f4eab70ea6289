package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/go-rod/rod"
)

// Document is the fetched page handed to a scraper's handler. Exactly one
// backend is populated, matching the scraper's declared mode:
//
//   - raw: the fetched markup, parsed once with goquery
//   - rendered: a live rod page bound to the run context
//
// Both backends answer the same query surface (find by selector, class or
// tag; read text and attributes), so a handler written against Document
// works under either mode.
type Document struct {
	url    string
	markup string            // raw mode only
	root   *goquery.Document // raw mode only
	page   *rod.Page         // rendered mode only
}

// NewRawDocument parses raw markup into a queryable document.
func NewRawDocument(url, markup string) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("document: parse markup: %w", err)
	}
	return &Document{url: url, markup: markup, root: root}, nil
}

// newRenderedDocument wraps a live page. The page is owned by the Browser;
// the document is only valid until the surrounding WithPage call returns.
func newRenderedDocument(url string, page *rod.Page) *Document {
	return &Document{url: url, page: page}
}

// URL returns the source URL the document was fetched from.
func (d *Document) URL() string { return d.url }

// Rendered reports whether the document is backed by a live browser page.
func (d *Document) Rendered() bool { return d.page != nil }

// HTML returns the document markup: the fetched bytes in raw mode, the
// current rendered DOM in rendered mode.
func (d *Document) HTML() (string, error) {
	if d.page != nil {
		return d.page.HTML()
	}
	return d.markup, nil
}

// Find returns the first element matching the CSS selector, or an error if
// the selector is invalid or nothing matches.
func (d *Document) Find(selector string) (*Element, error) {
	if d.page != nil {
		el, err := d.page.Element(selector)
		if err != nil {
			return nil, fmt.Errorf("document: no element matches %q: %w", selector, err)
		}
		return &Element{el: el}, nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("document: bad selector %q: %w", selector, err)
	}
	sel := d.root.FindMatcher(matcher).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("document: no element matches %q", selector)
	}
	return &Element{sel: sel}, nil
}

// FindAll returns every element matching the CSS selector, in document order.
// No match is not an error; the slice is just empty.
func (d *Document) FindAll(selector string) ([]*Element, error) {
	if d.page != nil {
		els, err := d.page.Elements(selector)
		if err != nil {
			return nil, fmt.Errorf("document: query %q: %w", selector, err)
		}
		return wrapRodElements(els), nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("document: bad selector %q: %w", selector, err)
	}
	return wrapSelections(d.root.FindMatcher(matcher)), nil
}

// FindByClass returns the first element carrying the given class.
func (d *Document) FindByClass(name string) (*Element, error) {
	return d.Find("." + name)
}

// FindByTag returns every element with the given tag name.
func (d *Document) FindByTag(tag string) ([]*Element, error) {
	return d.FindAll(tag)
}

// Element is one matched node of a Document, queryable the same way.
type Element struct {
	el  *rod.Element       // rendered
	sel *goquery.Selection // raw
}

// Text returns the element's visible text, trimmed.
func (e *Element) Text() (string, error) {
	if e.el != nil {
		text, err := e.el.Text()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(name string) (string, error) {
	if e.el != nil {
		val, err := e.el.Attribute(name)
		if err != nil {
			return "", err
		}
		if val == nil {
			return "", nil
		}
		return *val, nil
	}
	val, _ := e.sel.Attr(name)
	return val, nil
}

// Find returns the first descendant matching the CSS selector.
func (e *Element) Find(selector string) (*Element, error) {
	if e.el != nil {
		child, err := e.el.Element(selector)
		if err != nil {
			return nil, fmt.Errorf("element: no descendant matches %q: %w", selector, err)
		}
		return &Element{el: child}, nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("element: bad selector %q: %w", selector, err)
	}
	sel := e.sel.FindMatcher(matcher).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("element: no descendant matches %q", selector)
	}
	return &Element{sel: sel}, nil
}

// FindAll returns every descendant matching the CSS selector.
func (e *Element) FindAll(selector string) ([]*Element, error) {
	if e.el != nil {
		els, err := e.el.Elements(selector)
		if err != nil {
			return nil, fmt.Errorf("element: query %q: %w", selector, err)
		}
		return wrapRodElements(els), nil
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("element: bad selector %q: %w", selector, err)
	}
	return wrapSelections(e.sel.FindMatcher(matcher)), nil
}

// HTML returns the element's outer HTML.
func (e *Element) HTML() (string, error) {
	if e.el != nil {
		return e.el.HTML()
	}
	return goquery.OuterHtml(e.sel)
}

func wrapRodElements(els rod.Elements) []*Element {
	out := make([]*Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el})
	}
	return out
}

func wrapSelections(sel *goquery.Selection) []*Element {
	out := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out
}
