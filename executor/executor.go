// Package executor runs a scraper over a resolved set of URLs, isolating
// per-URL failures and producing an ordered table plus a failure log.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/harvest/discovery"
	"github.com/use-agent/harvest/engine"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/table"
)

// Failure kinds recorded in the run's failure log.
const (
	FailureFetch     = "fetch"
	FailureHandler   = "handler"
	FailureSchema    = "schema"
	FailureDiscovery = "discovery"
)

// Options tune a single run. The zero value is not usable; call
// (*Options).Defaults or build one from a validated request.
type Options struct {
	// SaveErrors marks the failure log for persistence by sinks. The
	// executor records failures regardless; sinks consult this flag.
	SaveErrors bool

	// Workers bounds concurrent URL processing. 1 means sequential.
	Workers int

	// Timeout applies per URL, covering fetch and handler together.
	Timeout time.Duration

	// Stealth enables the anti-detection script on rendered fetches.
	Stealth bool

	// StampColumn, when non-empty, appends a column with the run date
	// (YYYY-MM-DD) to every row.
	StampColumn string

	// DropDuplicates lists the columns on which duplicate rows are dropped,
	// first occurrence wins. Nil disables deduplication.
	DropDuplicates []string

	// FailIfEmpty makes a run that produced zero rows return an error.
	FailIfEmpty bool
}

// Defaults fills unset fields.
func (o *Options) Defaults() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
}

// Stats summarizes a run.
type Stats struct {
	URLs     int
	Rows     int
	Failed   int
	Duration time.Duration
}

// Result is the outcome of a run: the collected table, the failure log in
// URL-set order, and summary stats. A Result is returned even when Run
// also returns an error, so callers can inspect partial output.
type Result struct {
	Table    *table.Table
	Failures []table.Failure
	Stats    Stats
}

// RenderedFetcher loads a URL in a browser page and hands the rendered
// document to fn. Implemented by scraper.Browser.
type RenderedFetcher interface {
	WithPage(ctx context.Context, targetURL string, opts scraper.PageOptions, fn func(*scraper.Document) error) error
}

// Executor runs scrapers. The raw engine serves raw-mode scrapers and the
// browser serves rendered-mode ones; either may be nil when a deployment
// only supports one mode.
type Executor struct {
	raw      engine.Engine
	rendered RenderedFetcher
}

// New creates an Executor.
func New(raw engine.Engine, rendered RenderedFetcher) *Executor {
	return &Executor{raw: raw, rendered: rendered}
}

// Run builds the URL set from seeds plus the strategy's expansions (seeds
// always remain in the set; a nil strategy adds nothing beyond them), then
// runs spec over every URL. Per-URL and per-seed failures are recorded,
// never fatal; only configuration problems and an empty URL set abort the
// run.
func (x *Executor) Run(ctx context.Context, spec scraper.Spec, seeds []string, strategy discovery.Strategy, opts Options) (*Result, error) {
	start := time.Now()
	opts.Defaults()

	if err := spec.Validate(); err != nil {
		return nil, models.NewRunError(models.ErrCodeConfigInvalid, "invalid scraper", err)
	}
	if err := x.checkMode(spec.Mode); err != nil {
		return nil, err
	}
	if opts.StampColumn != "" && spec.Columns.Has(opts.StampColumn) {
		return nil, models.NewRunError(models.ErrCodeConfigInvalid,
			fmt.Sprintf("stamp column %q collides with a schema column", opts.StampColumn), nil)
	}

	res := &Result{Table: table.New(spec.Columns)}

	urls := x.resolveURLSet(ctx, seeds, strategy, res)
	if len(urls) == 0 {
		res.Stats = x.finishStats(res, start)
		return res, models.NewRunError(models.ErrCodeConfigInvalid, "url set is empty", nil)
	}

	outcomes := x.runURLs(ctx, spec, urls, opts)
	for _, o := range outcomes {
		if o.failure != nil {
			res.Failures = append(res.Failures, *o.failure)
			continue
		}
		for _, row := range o.rows {
			res.Table.Append(row)
		}
	}

	if len(opts.DropDuplicates) > 0 {
		if n := res.Table.DropDuplicates(opts.DropDuplicates); n > 0 {
			slog.Debug("executor: dropped duplicate rows", "scraper", spec.Name, "count", n)
		}
	}
	if opts.StampColumn != "" {
		res.Table.AddColumn(opts.StampColumn, start.Format("2006-01-02"))
	}

	res.Stats = x.finishStats(res, start)
	res.Stats.URLs = len(urls)

	slog.Info("executor: run complete",
		"scraper", spec.Name,
		"urls", res.Stats.URLs,
		"rows", res.Stats.Rows,
		"failed", res.Stats.Failed,
		"duration", res.Stats.Duration,
	)

	if opts.FailIfEmpty && res.Table.Len() == 0 {
		return res, models.NewRunError(models.ErrCodeEmptyResults, "run produced no rows", nil)
	}
	return res, nil
}

func (x *Executor) checkMode(mode scraper.Mode) error {
	switch mode {
	case scraper.ModeRaw:
		if x.raw == nil {
			return models.NewRunError(models.ErrCodeConfigInvalid, "raw fetching is not configured", nil)
		}
	case scraper.ModeRendered:
		if x.rendered == nil {
			return models.NewRunError(models.ErrCodeConfigInvalid, "rendered fetching is not configured", nil)
		}
	}
	return nil
}

// resolveURLSet builds the URL set: the seeds themselves plus whatever the
// strategy discovers from each of them, deduplicated first occurrence wins.
// Seed expansion failures go into the failure log; the seed stays in the
// set and the remaining seeds still run.
func (x *Executor) resolveURLSet(ctx context.Context, seeds []string, strategy discovery.Strategy, res *Result) []string {
	var urls []string
	seen := make(map[string]struct{})

	add := func(u string) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, seed := range seeds {
		if err := discovery.ValidateURL(seed); err != nil {
			res.Failures = append(res.Failures, table.Failure{
				URL: seed, Kind: FailureDiscovery, Message: err.Error(),
			})
			continue
		}
		add(seed)
		if strategy == nil {
			continue
		}
		expanded, err := strategy.Discover(ctx, seed)
		if err != nil {
			slog.Warn("executor: seed expansion failed",
				"strategy", strategy.Name(), "seed", seed, "error", err,
			)
			res.Failures = append(res.Failures, table.Failure{
				URL: seed, Kind: FailureDiscovery, Message: err.Error(),
			})
			continue
		}
		for _, u := range expanded {
			add(u)
		}
	}
	return urls
}

// outcome holds one URL's contribution, rows or a single failure.
type outcome struct {
	rows    []table.Row
	failure *table.Failure
}

// runURLs processes every URL and returns outcomes in URL-set order.
// Workers > 1 fans out with a bounded group; each goroutine writes only
// its own slot so ordering is positional, not completion-based. Once the
// caller's context is cancelled no further URLs are started; the skipped
// slots stay empty rather than piling up fetch failures.
func (x *Executor) runURLs(ctx context.Context, spec scraper.Spec, urls []string, opts Options) []outcome {
	outcomes := make([]outcome, len(urls))

	if opts.Workers <= 1 {
		for i, u := range urls {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = x.runOne(ctx, spec, u, opts)
		}
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, u := range urls {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcomes[i] = x.runOne(gctx, spec, u, opts)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures live in outcomes
	return outcomes
}

// runOne fetches a single URL, runs the handler, and validates the rows.
func (x *Executor) runOne(ctx context.Context, spec scraper.Spec, url string, opts Options) outcome {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var rows []table.Row
	var err error
	switch spec.Mode {
	case scraper.ModeRendered:
		rows, err = x.runRendered(ctx, spec, url, opts)
	default:
		rows, err = x.runRaw(ctx, spec, url)
	}
	if err != nil {
		return outcome{failure: classify(url, err)}
	}

	for _, row := range rows {
		if err := spec.Columns.CheckRow(row); err != nil {
			return outcome{failure: &table.Failure{
				URL: url, Kind: FailureSchema, Message: err.Error(),
			}}
		}
	}
	return outcome{rows: rows}
}

func (x *Executor) runRaw(ctx context.Context, spec scraper.Spec, url string) ([]table.Row, error) {
	fetched, err := x.raw.Fetch(ctx, url)
	if err != nil {
		return nil, fetchError(url, err)
	}
	doc, err := scraper.NewRawDocument(fetched.FinalURL, fetched.HTML)
	if err != nil {
		return nil, fetchError(url, err)
	}
	return invokeHandler(ctx, spec, url, doc)
}

func (x *Executor) runRendered(ctx context.Context, spec scraper.Spec, url string, opts Options) ([]table.Row, error) {
	var rows []table.Row
	err := x.rendered.WithPage(ctx, url, scraper.PageOptions{Stealth: opts.Stealth}, func(doc *scraper.Document) error {
		r, herr := invokeHandler(ctx, spec, url, doc)
		if herr != nil {
			return herr
		}
		rows = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// invokeHandler calls the scraper's handler with panic containment, so a
// buggy handler fails its URL instead of the process.
func invokeHandler(ctx context.Context, spec scraper.Spec, url string, doc *scraper.Document) (rows []table.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewRunError(models.ErrCodeHandlerFailed,
				fmt.Sprintf("handler panicked: %v", r), nil)
		}
	}()
	rows, err = spec.Handler(ctx, url, doc)
	if err != nil {
		var runErr *models.RunError
		if !errors.As(err, &runErr) {
			err = models.NewRunError(models.ErrCodeHandlerFailed, "handler failed", err)
		}
	}
	return rows, err
}

func fetchError(url string, err error) error {
	var runErr *models.RunError
	if errors.As(err, &runErr) && runErr.Code == models.ErrCodeFetchFailed {
		return err
	}
	return models.NewRunError(models.ErrCodeFetchFailed,
		fmt.Sprintf("fetch %s failed", url), err)
}

// classify maps a per-URL error onto a failure log entry.
func classify(url string, err error) *table.Failure {
	kind := FailureHandler
	var runErr *models.RunError
	if errors.As(err, &runErr) && runErr.Code == models.ErrCodeFetchFailed {
		kind = FailureFetch
	}
	return &table.Failure{URL: url, Kind: kind, Message: err.Error()}
}

func (x *Executor) finishStats(res *Result, start time.Time) Stats {
	return Stats{
		Rows:     res.Table.Len(),
		Failed:   len(res.Failures),
		Duration: time.Since(start),
	}
}
