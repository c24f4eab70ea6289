package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/ysmood/gson"
)

// Browser manages the shared browser process and the page pool behind
// rendered fetches. It is safe for concurrent use. Scrapers and discovery
// strategies never touch it directly — they only see the Document a
// WithPage call hands them.
type Browser struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	activePages atomic.Int32
}

// PageOptions control one rendered fetch.
type PageOptions struct {
	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool
}

// NewBrowser launches a headless browser and initialises the reusable page pool.
func NewBrowser(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewRunError(
			models.ErrCodeInternal,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewRunError(
			models.ErrCodeInternal,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Browser{
		browser:  browser,
		pagePool: pool,
		cfg:      cfg,
	}, nil
}

// WithPage runs fn with a Document bound to an isolated page navigated to
// targetURL. The page is borrowed from the pool before fn and released after
// it on every path, so no browser state leaks between URLs.
//
// Lifecycle:
//
//  1. Acquire page from the pool (or create one)
//  2. DEFER: navigate to about:blank and return the page to the pool
//  3. Stealth injection — must land before navigation to take effect
//  4. Default headers
//  5. Mount the hijack router blocking heavy resource types
//  6. Bind the caller's context so the timeout covers every page operation
//  7. Navigate, then wait for the DOM to stabilise
//  8. Invoke fn with the live document
//
// Navigation and wait failures come back as FETCH_FAILED; fn's error is
// returned unchanged, so the caller can tell the two phases apart.
func (b *Browser) WithPage(ctx context.Context, targetURL string, opts PageOptions, fn func(*Document) error) error {
	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, acquireErr := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return models.NewRunError(
			models.ErrCodeFetchFailed,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// The cleanup uses the original page reference (without the request
	// context) so release succeeds even after the context has expired.
	// Cookies are browser-wide state: clear them on release so one URL's
	// session never leaks into the next fetch through the pool.
	defer func() {
		if clearErr := (proto.NetworkClearBrowserCookies{}).Call(page); clearErr != nil {
			slog.Warn("cleanup: failed to clear cookies", "error", clearErr)
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	if opts.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	headers := proto.NetworkHeaders{
		"Accept-Language": gson.New("en-US,en;q=0.9"),
	}
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		headers["Referer"] = gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()))
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(page)

	router := setupHijack(page, b.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if navErr := p.Navigate(targetURL); navErr != nil {
		return fetchError(navErr, "navigation to target URL failed")
	}

	// WaitRequestIdle conflicts with the hijack router's Fetch domain on
	// recent Chromium, so DOM stability is the wait signal.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		if ctx.Err() != nil {
			return fetchError(stableErr, "page did not become interactive in time")
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", targetURL, "error", stableErr,
		)
	}

	return fn(newRenderedDocument(targetURL, p))
}

// Stats returns a snapshot of the pool's current state.
func (b *Browser) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    b.cfg.MaxPages,
		ActivePages: int(b.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	slog.Info("browser shutting down: draining page pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	b.browser.MustClose()
	slog.Info("browser shutdown complete")
}

// fetchError wraps navigation failures as FETCH_FAILED, preserving timeout
// and cancellation causes in the message.
func fetchError(err error, msg string) *models.RunError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewRunError(models.ErrCodeFetchFailed, msg+": deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return models.NewRunError(models.ErrCodeFetchFailed, "fetch canceled", err)
	default:
		return models.NewRunError(models.ErrCodeFetchFailed, msg, err)
	}
}
