package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/Vivek1819/siftor-backend/internal/common"
)

// ChromeFactory creates a dedicated headless Chrome instance per session.
type ChromeFactory struct {
	config common.CrawlerConfig
	logger arbor.ILogger
}

// NewChromeFactory creates a renderer factory backed by chromedp
func NewChromeFactory(config common.CrawlerConfig, logger arbor.ILogger) *ChromeFactory {
	return &ChromeFactory{
		config: config,
		logger: logger,
	}
}

// NewRenderer launches a browser instance scoped to ctx. Cancelling ctx
// cancels the allocator, which kills the browser and any in-flight navigation.
func (f *ChromeFactory) NewRenderer(ctx context.Context) (Renderer, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.config.Headless),
		chromedp.Flag("disable-gpu", f.config.DisableGPU),
		chromedp.Flag("no-sandbox", f.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test: surface launch failures before the session starts crawling
	startTime := time.Now()
	testCtx, testCancel := context.WithTimeout(browserCtx, f.config.NavigationTimeout.Duration())
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser instance failed startup test: %w", err)
	}

	f.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser instance created for crawl session")

	return &chromeRenderer{
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		navTimeout:      f.config.NavigationTimeout.Duration(),
		jsWait:          f.config.JavaScriptWaitTime.Duration(),
		logger:          f.logger,
	}, nil
}

type chromeRenderer struct {
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	navTimeout      time.Duration
	jsWait          time.Duration
	logger          arbor.ILogger
}

// Navigate loads the URL and returns the rendered document markup
func (r *chromeRenderer) Navigate(ctx context.Context, url string) (string, error) {
	if err := r.browserCtx.Err(); err != nil {
		return "", fmt.Errorf("browser context cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("session context cancelled: %w", err)
	}

	navCtx, cancel := context.WithTimeout(r.browserCtx, r.navTimeout)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.jsWait),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("navigation failed for %s: %w", url, err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty document returned for %s", url)
	}

	return htmlContent, nil
}

// Close releases the browser and its allocator
func (r *chromeRenderer) Close() error {
	r.browserCancel()
	r.allocatorCancel()
	r.logger.Debug().Msg("Browser instance released")
	return nil
}
