package table

import (
	"strings"
	"testing"
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{"valid", Schema{"name", "url"}, false},
		{"single column", Schema{"url"}, false},
		{"empty", Schema{}, true},
		{"nil", nil, true},
		{"duplicate", Schema{"url", "url"}, true},
		{"blank", Schema{"name", " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaCheckRow(t *testing.T) {
	schema := Schema{"name", "url"}

	tests := []struct {
		name    string
		row     Row
		wantErr string
	}{
		{"exact match", Row{"name": "a", "url": "b"}, ""},
		{"empty values ok", Row{"name": "", "url": ""}, ""},
		{"missing column", Row{"name": "a"}, "missing"},
		{"extra column", Row{"name": "a", "url": "b", "price": "c"}, "columns"},
		{"renamed column", Row{"name": "a", "href": "b"}, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.CheckRow(tt.row)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("CheckRow() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("CheckRow() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckRow() error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaHas(t *testing.T) {
	schema := Schema{"name", "url"}
	if !schema.Has("url") {
		t.Error("Has(url) = false, want true")
	}
	if schema.Has("price") {
		t.Error("Has(price) = true, want false")
	}
}

func TestTableAppendAndColumn(t *testing.T) {
	tbl := New(Schema{"name", "url"})
	tbl.Append(Row{"name": "a", "url": "1"})
	tbl.Append(Row{"name": "b", "url": "2"}, Row{"name": "c", "url": "3"})

	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	got := tbl.Column("url")
	want := []string{"1", "2", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Column(url)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if tbl.Column("nope") != nil {
		t.Error("Column(nope) should be nil for unknown column")
	}
}

func TestTableAddColumn(t *testing.T) {
	tbl := New(Schema{"name"})
	tbl.Append(Row{"name": "a"}, Row{"name": "b"})
	tbl.AddColumn("scraped_date", "2026-08-29")

	if !tbl.Columns.Has("scraped_date") {
		t.Fatal("AddColumn did not extend the schema")
	}
	for i, r := range tbl.Rows {
		if r["scraped_date"] != "2026-08-29" {
			t.Errorf("row %d missing stamp value, got %q", i, r["scraped_date"])
		}
	}
}

func TestTableDropDuplicates(t *testing.T) {
	newTable := func() *Table {
		tbl := New(Schema{"name", "url"})
		tbl.Append(
			Row{"name": "a", "url": "1"},
			Row{"name": "b", "url": "1"},
			Row{"name": "a", "url": "1"},
			Row{"name": "a", "url": "2"},
		)
		return tbl
	}

	t.Run("subset of columns", func(t *testing.T) {
		tbl := newTable()
		if n := tbl.DropDuplicates([]string{"url"}); n != 2 {
			t.Fatalf("dropped %d rows, want 2", n)
		}
		// First occurrence wins: "a"/"1" stays, "b"/"1" goes.
		if tbl.Rows[0]["name"] != "a" || tbl.Rows[1]["url"] != "2" {
			t.Errorf("unexpected survivors: %v", tbl.Rows)
		}
	})

	t.Run("all columns by default", func(t *testing.T) {
		tbl := newTable()
		if n := tbl.DropDuplicates(nil); n != 1 {
			t.Fatalf("dropped %d rows, want 1", n)
		}
		if tbl.Len() != 3 {
			t.Errorf("Len() = %d, want 3", tbl.Len())
		}
	})

	t.Run("empty table", func(t *testing.T) {
		tbl := New(Schema{"name"})
		if n := tbl.DropDuplicates(nil); n != 0 {
			t.Errorf("dropped %d rows from empty table", n)
		}
	})
}

func TestRowClone(t *testing.T) {
	r := Row{"name": "a"}
	c := r.Clone()
	c["name"] = "b"
	if r["name"] != "a" {
		t.Error("Clone() shares storage with the original")
	}
}
