package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/discovery"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/table"
)

// DefaultURLColumn is the output column a chain stage feeds into the next
// stage when the stage does not name one.
const DefaultURLColumn = "url"

// Stage is one step of a chained run. The stage's table feeds the next
// stage: the values of URLColumn become its seeds.
type Stage struct {
	Spec      scraper.Spec
	Strategy  discovery.Strategy
	URLColumn string
}

// RunChain runs stages in order, threading each stage's URLColumn values
// into the next stage's seeds. The returned Result holds the final stage's
// table with the failure logs of every stage concatenated.
//
// StampColumn, DropDuplicates and FailIfEmpty apply to the final stage
// only; Workers, Timeout and Stealth apply to every stage.
func (x *Executor) RunChain(ctx context.Context, stages []Stage, seeds []string, opts Options) (*Result, error) {
	if len(stages) == 0 {
		return nil, models.NewRunError(models.ErrCodeConfigInvalid, "chain has no stages", nil)
	}
	for i, st := range stages {
		if i == len(stages)-1 {
			break
		}
		col := st.urlColumn()
		if !st.Spec.Columns.Has(col) {
			return nil, models.NewRunError(models.ErrCodeConfigInvalid,
				fmt.Sprintf("stage %d (%s) has no column %q to feed the next stage", i, st.Spec.Name, col), nil)
		}
	}
	if opts.StampColumn != "" && stages[len(stages)-1].Spec.Columns.Has(opts.StampColumn) {
		return nil, models.NewRunError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("stamp column %q collides with a schema column", opts.StampColumn), nil)
	}

	start := time.Now()
	var carried *Result
	stageSeeds := seeds

	for i, st := range stages {
		stageOpts := opts
		if i < len(stages)-1 {
			stageOpts.StampColumn = ""
			stageOpts.DropDuplicates = nil
			stageOpts.FailIfEmpty = false
		}

		// A dried-up chain is not a failure: when an earlier stage produced
		// no URLs, the remaining stages contribute empty tables.
		if i > 0 && len(stageSeeds) == 0 {
			final := stages[len(stages)-1]
			carried.Table = table.New(final.Spec.Columns)
			if opts.StampColumn != "" {
				carried.Table.AddColumn(opts.StampColumn, start.Format("2006-01-02"))
			}
			carried.Stats.Rows = 0
			break
		}

		res, err := x.Run(ctx, st.Spec, stageSeeds, st.Strategy, stageOpts)
		if carried != nil && res != nil {
			res.Failures = append(carried.Failures, res.Failures...)
			res.Stats.URLs += carried.Stats.URLs
			res.Stats.Failed = len(res.Failures)
		}
		if err != nil {
			return res, fmt.Errorf("chain stage %d (%s): %w", i, st.Spec.Name, err)
		}
		carried = res

		if i < len(stages)-1 {
			stageSeeds = res.Table.Column(st.urlColumn())
			slog.Debug("executor: chain stage complete",
				"stage", i, "scraper", st.Spec.Name, "next_seeds", len(stageSeeds),
			)
		}
	}

	carried.Stats.Duration = time.Since(start)
	if opts.FailIfEmpty && carried.Table.Len() == 0 {
		return carried, models.NewRunError(models.ErrCodeEmptyResults, "chain produced no rows", nil)
	}
	return carried, nil
}

func (s Stage) urlColumn() string {
	if s.URLColumn != "" {
		return s.URLColumn
	}
	return DefaultURLColumn
}
