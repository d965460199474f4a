package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod, for
// storefronts that render their catalog client-side. Fetches are
// sequential so a single reusable tab is enough.
type BrowserFetcher struct {
	*Politeness

	browser *rod.Browser
	page    *rod.Page
	cfg     *config.FetcherConfig
	metrics *observability.Metrics
	logger  *slog.Logger
	uaIndex int
}

// NewBrowserFetcher launches Chromium and opens the working tab.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*BrowserFetcher, error) {
	log := logger.With("component", "browser_fetcher")
	bf := &BrowserFetcher{
		Politeness: NewPoliteness(&cfg.Fetcher, log, metrics),
		cfg:        &cfg.Fetcher,
		metrics:    metrics,
		logger:     log,
	}

	launchURL, err := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	if cfg.Fetcher.Stealth {
		bf.page, err = stealth.Page(browser)
	} else {
		bf.page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	bf.logger.Info("browser fetcher ready", "stealth", cfg.Fetcher.Stealth)
	return bf, nil
}

// Fetch navigates to rawURL under the shared retry and delay policy.
func (bf *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*types.Page, error) {
	return bf.do(ctx, rawURL, bf.attempt)
}

func (bf *BrowserFetcher) attempt(ctx context.Context, rawURL string) (*types.Page, error) {
	start := time.Now()
	page := bf.page.Context(ctx).Timeout(bf.cfg.RequestTimeout)

	if ua := bf.nextUserAgent(); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua, AcceptLanguage: "en-US,en;q=0.9"}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if err := page.Navigate(rawURL); err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}

	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", rawURL, "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.metrics.RecordFetch(200, len(html))

	bf.logger.Debug("browser fetch complete",
		"url", rawURL,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserPage(rawURL, finalURL, []byte(html), duration), nil
}

func (bf *BrowserFetcher) nextUserAgent() string {
	if len(bf.cfg.UserAgents) == 0 {
		return ""
	}
	bf.uaIndex = (bf.uaIndex + 1) % len(bf.cfg.UserAgents)
	return bf.cfg.UserAgents[bf.uaIndex]
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	if bf.page != nil {
		_ = bf.page.Close()
	}
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}
