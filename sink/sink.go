// Package sink delivers run results to their destination. Sinks receive
// the finished table and failure log; the executor never talks to a sink
// mid-run.
package sink

import (
	"context"
	"log/slog"

	"github.com/use-agent/harvest/executor"
)

// Sink consumes a completed run result.
type Sink interface {
	// Write delivers the result. opts is the run's options; sinks consult
	// SaveErrors to decide whether the failure log is persisted.
	Write(ctx context.Context, scraperName string, res *executor.Result, opts executor.Options) error
}

// Log writes results to structured logs: one summary line per run, one
// line per failure when SaveErrors is set. It is the default sink.
type Log struct{}

func (Log) Write(ctx context.Context, scraperName string, res *executor.Result, opts executor.Options) error {
	slog.Info("sink: run result",
		"scraper", scraperName,
		"urls", res.Stats.URLs,
		"rows", res.Stats.Rows,
		"failed", res.Stats.Failed,
		"duration", res.Stats.Duration,
	)
	if !opts.SaveErrors {
		return nil
	}
	for _, f := range res.Failures {
		slog.Warn("sink: url failed",
			"scraper", scraperName,
			"url", f.URL,
			"kind", f.Kind,
			"error", f.Message,
		)
	}
	return nil
}
