package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/harvest/executor"
	"github.com/use-agent/harvest/table"
)

// CSV writes each run to a timestamped CSV file under Dir, plus a
// companion <name>.errors.csv when SaveErrors is set and failures exist.
type CSV struct {
	Dir string
}

// NewCSV creates a CSV sink writing under dir.
func NewCSV(dir string) *CSV {
	return &CSV{Dir: dir}
}

func (s *CSV) Write(ctx context.Context, scraperName string, res *executor.Result, opts executor.Options) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("csv sink: create dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	base := filepath.Join(s.Dir, fmt.Sprintf("%s-%s", scraperName, stamp))

	if err := s.writeTable(base+".csv", res.Table); err != nil {
		return err
	}
	if opts.SaveErrors && len(res.Failures) > 0 {
		if err := s.writeFailures(base+".errors.csv", res.Failures); err != nil {
			return err
		}
	}
	return nil
}

func (s *CSV) writeTable(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv sink: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("csv sink: write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv sink: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv sink: flush: %w", err)
	}
	return f.Close()
}

func (s *CSV) writeFailures(path string, failures []table.Failure) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv sink: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"url", "kind", "message"}); err != nil {
		return fmt.Errorf("csv sink: write header: %w", err)
	}
	for _, fa := range failures {
		if err := w.Write([]string{fa.URL, fa.Kind, fa.Message}); err != nil {
			return fmt.Errorf("csv sink: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv sink: flush: %w", err)
	}
	return f.Close()
}
