// Package table holds the row-oriented result types shared by scrapers,
// the executor and the sinks: an ordered column schema, rows keyed by that
// schema, and the per-URL failure log.
package table

import (
	"fmt"
	"sort"
	"strings"
)

// Schema is the ordered list of column names a scraper declares.
// A valid schema is non-empty and every name is unique and non-blank.
type Schema []string

// Validate checks the schema invariants. It is called once per run, before
// any fetch happens; a failure here is a configuration error, not a per-URL one.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema: column list is empty")
	}
	seen := make(map[string]struct{}, len(s))
	for _, col := range s {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("schema: blank column name")
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("schema: duplicate column %q", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

// Has reports whether the schema declares the column.
func (s Schema) Has(name string) bool {
	for _, col := range s {
		if col == name {
			return true
		}
	}
	return false
}

// CheckRow verifies that the row's key set equals the schema exactly.
// Extra or missing keys are both contract violations.
func (s Schema) CheckRow(r Row) error {
	if len(r) != len(s) {
		return fmt.Errorf("row has %d columns, schema declares %d (%s)", len(r), len(s), s.describeDiff(r))
	}
	for _, col := range s {
		if _, ok := r[col]; !ok {
			return fmt.Errorf("row is missing column %q (%s)", col, s.describeDiff(r))
		}
	}
	return nil
}

// describeDiff renders the extra/missing key sets for error messages.
func (s Schema) describeDiff(r Row) string {
	declared := make(map[string]struct{}, len(s))
	for _, col := range s {
		declared[col] = struct{}{}
	}
	var extra, missing []string
	for k := range r {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	for _, col := range s {
		if _, ok := r[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(extra)
	sort.Strings(missing)
	return fmt.Sprintf("extra: %v, missing: %v", extra, missing)
}

// Row is one extracted record: column name → scalar value. The executor
// checks every row against the declared schema before it enters the table.
type Row map[string]string

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows sharing one schema. Row order is
// append order: grouped by source URL, URL order preserved.
type Table struct {
	Columns Schema
	Rows    []Row
}

// New creates an empty table for the given schema.
func New(columns Schema) *Table {
	return &Table{Columns: columns}
}

// Append adds rows to the end of the table, preserving their order.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// AddColumn appends a column to the schema and sets the given value on every
// existing row. Used for run-level stamps (e.g. the scrape timestamp).
func (t *Table) AddColumn(name, value string) {
	t.Columns = append(t.Columns, name)
	for _, r := range t.Rows {
		r[name] = value
	}
}

// Column returns the values of one column in row order. Unknown column
// names yield an empty slice.
func (t *Table) Column(name string) []string {
	if !t.Columns.Has(name) {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[name])
	}
	return out
}

// DropDuplicates removes rows whose values on the given columns repeat an
// earlier row's values (first occurrence wins). Returns the number dropped.
// Nil or empty columns means the full schema.
func (t *Table) DropDuplicates(columns []string) int {
	if len(columns) == 0 {
		columns = t.Columns
	}
	if len(t.Rows) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		var b strings.Builder
		for _, col := range columns {
			b.WriteString(r[col])
			b.WriteByte('\x00')
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// Failure is one entry in the run's error log: the URL the failure is
// attributed to, the taxonomy code, and the underlying error text verbatim.
type Failure struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
