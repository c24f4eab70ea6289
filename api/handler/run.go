package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/discovery"
	"github.com/use-agent/harvest/executor"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/sink"
)

// Run returns a handler for POST /api/v1/runs.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults, clamp against server limits.
//  2. Resolve the scraper and the discovery strategy.
//  3. Executor.Run → table + failure log (synchronous; one request = one run).
//  4. Deliver the result to the configured sinks.
//  5. Return 200 with rows, errors and stats.
func Run(reg *scraper.Registry, x *executor.Executor, strategies map[string]discovery.Strategy, sinks []sink.Sink, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeConfigInvalid,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()
		if req.Workers > cfg.Executor.MaxWorkers {
			req.Workers = cfg.Executor.MaxWorkers
		}
		if time.Duration(req.Timeout)*time.Second > cfg.Fetch.MaxTimeout {
			req.Timeout = int(cfg.Fetch.MaxTimeout / time.Second)
		}

		spec, ok := reg.Get(req.Scraper)
		if !ok {
			c.JSON(http.StatusBadRequest, models.RunResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeConfigInvalid,
					Message: "unknown scraper: " + req.Scraper,
				},
			})
			return
		}

		var strategy discovery.Strategy
		if req.Discovery != "" {
			strategy, ok = strategies[req.Discovery]
			if !ok {
				c.JSON(http.StatusBadRequest, models.RunResponse{
					Success: false,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeConfigInvalid,
						Message: "unknown discovery strategy: " + req.Discovery,
					},
				})
				return
			}
		}

		opts := executor.Options{
			SaveErrors:     req.SaveErrors,
			Workers:        req.Workers,
			Timeout:        time.Duration(req.Timeout) * time.Second,
			Stealth:        req.Stealth,
			StampColumn:    req.StampColumn,
			DropDuplicates: req.DropDuplicates,
			FailIfEmpty:    req.FailIfEmpty,
		}

		res, err := x.Run(c.Request.Context(), spec, req.URLs, strategy, opts)
		if err != nil {
			respondError(c, err, res)
			return
		}

		for _, s := range sinks {
			if serr := s.Write(c.Request.Context(), spec.Name, res, opts); serr != nil {
				slog.Error("run: sink write failed", "scraper", spec.Name, "error", serr)
			}
		}

		c.JSON(http.StatusOK, models.RunResponse{
			Success: true,
			Columns: res.Table.Columns,
			Rows:    res.Table.Rows,
			Errors:  res.Failures,
			Stats:   toStats(res.Stats),
		})
	}
}

// respondError maps a RunError to the correct HTTP status code and writes a
// structured JSON error response, including any partial result.
func respondError(c *gin.Context, err error, res *executor.Result) {
	var runErr *models.RunError
	if !errors.As(err, &runErr) {
		runErr = models.NewRunError(models.ErrCodeInternal, err.Error(), err)
	}

	resp := models.RunResponse{
		Success: false,
		Error:   runErr.ToDetail(),
	}
	if res != nil {
		resp.Errors = res.Failures
		resp.Stats = toStats(res.Stats)
	}
	c.JSON(mapErrorToStatus(runErr), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.RunError) int {
	switch e.Code {
	case models.ErrCodeConfigInvalid:
		return http.StatusBadRequest // 400
	case models.ErrCodeEmptyResults:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

func toStats(s executor.Stats) models.RunStats {
	return models.RunStats{
		URLs:       s.URLs,
		Rows:       s.Rows,
		Failed:     s.Failed,
		DurationMs: s.Duration.Milliseconds(),
	}
}
