// Package scraper defines the contract a scraper implementation satisfies —
// a declared column schema, a fetch mode, and one extraction handler — plus
// the document capability handlers extract from and the browser lifecycle
// behind rendered fetches.
package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/use-agent/harvest/table"
)

// Mode selects how a scraper's pages are fetched.
type Mode string

const (
	// ModeRaw fetches pages with a plain HTTP GET; no script execution.
	ModeRaw Mode = "raw"

	// ModeRendered opens pages in a managed browser session and waits for
	// the document to become interactive before extraction.
	ModeRendered Mode = "rendered"
)

// Handler is the single extraction step: given the source URL and the fetched
// document, return the extracted rows. Each row must carry exactly the
// scraper's declared columns; the executor validates this after the call.
//
// Handlers must not hold state across calls: their only side effects are
// reads against the passed document.
type Handler func(ctx context.Context, url string, doc *Document) ([]table.Row, error)

// Spec is the immutable descriptor of a scraper: everything an implementer
// supplies to register one. There is no subtyping — a Spec is a plain value.
type Spec struct {
	// Name identifies the scraper in the registry and the API.
	Name string

	// Columns is the ordered schema every returned row must match exactly.
	Columns table.Schema

	// Mode declares whether pages are fetched raw or rendered.
	Mode Mode

	// Handler is the extraction function.
	Handler Handler
}

// Validate checks the spec invariants. A failure is a configuration error:
// the executor aborts the run before any fetch.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scraper: name is empty")
	}
	if err := s.Columns.Validate(); err != nil {
		return fmt.Errorf("scraper %q: %w", s.Name, err)
	}
	if s.Mode != ModeRaw && s.Mode != ModeRendered {
		return fmt.Errorf("scraper %q: unknown fetch mode %q", s.Name, s.Mode)
	}
	if s.Handler == nil {
		return fmt.Errorf("scraper %q: handler is nil", s.Name)
	}
	return nil
}
