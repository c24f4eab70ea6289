package scraper

import (
	"strings"
	"testing"
)

const productPage = `<!DOCTYPE html>
<html>
<head><title>Catalogue</title></head>
<body>
  <div class="listing">
    <div class="product">
      <h2 class="title">Widget</h2>
      <span class="price">9.99</span>
      <a href="/products/widget">details</a>
    </div>
    <div class="product">
      <h2 class="title">  Gadget  </h2>
      <span class="price">19.99</span>
      <a href="/products/gadget">details</a>
    </div>
  </div>
</body>
</html>`

func mustRawDocument(t *testing.T, markup string) *Document {
	t.Helper()
	doc, err := NewRawDocument("https://shop.example.com/catalogue", markup)
	if err != nil {
		t.Fatalf("NewRawDocument() failed: %v", err)
	}
	return doc
}

func TestRawDocumentBasics(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	if doc.Rendered() {
		t.Error("Rendered() = true for a raw document")
	}
	if doc.URL() != "https://shop.example.com/catalogue" {
		t.Errorf("URL() = %q", doc.URL())
	}

	markup, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	if !strings.Contains(markup, "Catalogue") {
		t.Error("HTML() does not round-trip the markup")
	}
}

func TestRawDocumentFind(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	t.Run("first match", func(t *testing.T) {
		el, err := doc.Find(".product .title")
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		text, err := el.Text()
		if err != nil {
			t.Fatalf("Text() failed: %v", err)
		}
		if text != "Widget" {
			t.Errorf("Text() = %q, want Widget", text)
		}
	})

	t.Run("no match is an error", func(t *testing.T) {
		if _, err := doc.Find(".missing"); err == nil {
			t.Error("Find() succeeded for an absent selector")
		}
	})

	t.Run("bad selector is an error", func(t *testing.T) {
		if _, err := doc.Find("p["); err == nil {
			t.Error("Find() accepted an invalid selector")
		}
	})
}

func TestRawDocumentFindAll(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	els, err := doc.FindAll(".product")
	if err != nil {
		t.Fatalf("FindAll() failed: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("FindAll() matched %d elements, want 2", len(els))
	}

	// Document order, text trimmed.
	second, err := els[1].Find(".title")
	if err != nil {
		t.Fatalf("Find() on element failed: %v", err)
	}
	text, _ := second.Text()
	if text != "Gadget" {
		t.Errorf("second product title = %q, want Gadget", text)
	}

	t.Run("no match is empty, not an error", func(t *testing.T) {
		none, err := doc.FindAll(".missing")
		if err != nil {
			t.Fatalf("FindAll() failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("FindAll() matched %d elements, want 0", len(none))
		}
	})
}

func TestRawDocumentFindByHelpers(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	el, err := doc.FindByClass("price")
	if err != nil {
		t.Fatalf("FindByClass() failed: %v", err)
	}
	if text, _ := el.Text(); text != "9.99" {
		t.Errorf("FindByClass(price) text = %q", text)
	}

	anchors, err := doc.FindByTag("a")
	if err != nil {
		t.Fatalf("FindByTag() failed: %v", err)
	}
	if len(anchors) != 2 {
		t.Fatalf("FindByTag(a) matched %d, want 2", len(anchors))
	}
}

func TestRawElementAttr(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	el, err := doc.Find(".product a")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}

	href, err := el.Attr("href")
	if err != nil {
		t.Fatalf("Attr() failed: %v", err)
	}
	if href != "/products/widget" {
		t.Errorf("Attr(href) = %q", href)
	}

	// Absent attribute is empty, not an error.
	missing, err := el.Attr("data-sku")
	if err != nil || missing != "" {
		t.Errorf("Attr(data-sku) = %q, %v", missing, err)
	}
}

func TestRawElementHTML(t *testing.T) {
	doc := mustRawDocument(t, productPage)

	el, err := doc.Find(".price")
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	outer, err := el.HTML()
	if err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	if !strings.Contains(outer, `<span class="price">`) {
		t.Errorf("HTML() = %q, want outer HTML", outer)
	}
}
