package models

import "github.com/use-agent/harvest/table"

// RunRequest is the payload for POST /api/v1/runs. It is the sole boundary
// the host scheduler calls: one request is one discrete, retryable run.
type RunRequest struct {
	// Scraper is the registered scraper name to execute. Required.
	Scraper string `json:"scraper" binding:"required"`

	// URLs is the ordered seed URL list. May be empty only when a discovery
	// strategy is set (the strategy then supplies every URL).
	URLs []string `json:"urls,omitempty"`

	// Discovery selects a URL discovery strategy by name
	// (e.g. "sitemap", "links"). Empty means seeds only.
	Discovery string `json:"discovery,omitempty" binding:"omitempty,oneof=sitemap links"`

	// SaveErrors controls whether the sink persists the error log.
	// The error log is always returned in the response either way.
	SaveErrors bool `json:"save_errors,omitempty"`

	// Workers bounds parallel URL processing. Default: 1 (sequential).
	Workers int `json:"workers,omitempty" binding:"omitempty,min=1,max=32"`

	// Timeout is the per-URL fetch budget in seconds. Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions on rendered fetches.
	Stealth bool `json:"stealth,omitempty"`

	// StampColumn, when set, appends that column to every result row holding
	// the run date (YYYY-MM-DD).
	StampColumn string `json:"stamp_column,omitempty"`

	// DropDuplicates lists columns on which duplicate rows are dropped after
	// the table is assembled (first occurrence wins).
	DropDuplicates []string `json:"drop_duplicates,omitempty"`

	// FailIfEmpty makes an empty final table a run-level failure.
	// Default: false — an empty table is still a successful run.
	FailIfEmpty bool `json:"fail_if_empty,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *RunRequest) Defaults() {
	if r.Workers == 0 {
		r.Workers = 1
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// RunStats summarises one run for the response and the logs.
type RunStats struct {
	URLs       int   `json:"urls"`
	Rows       int   `json:"rows"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

// RunResponse is the body for POST /api/v1/runs.
type RunResponse struct {
	Success bool            `json:"success"`
	Columns []string        `json:"columns,omitempty"`
	Rows    []table.Row     `json:"rows,omitempty"`
	Errors  []table.Failure `json:"errors,omitempty"`
	Stats   RunStats        `json:"stats"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// ScraperInfo describes one registered scraper for GET /api/v1/scrapers.
type ScraperInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Mode    string   `json:"mode"`
}

// ScrapersResponse is the body for GET /api/v1/scrapers.
type ScrapersResponse struct {
	Scrapers []ScraperInfo `json:"scrapers"`
	Total    int           `json:"total"`
}
