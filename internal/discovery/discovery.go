// Package discovery finds candidate category, product and article URLs on
// a storefront from its robots.txt, sitemaps and homepage navigation.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/fetcher"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// PageFetcher is the part of fetcher.Fetcher discovery needs.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*types.Page, error)
}

// Buckets holds discovered URLs per entity kind, deduplicated and in
// discovery order.
type Buckets struct {
	CategoryURLs []string `json:"category_urls"`
	ProductURLs  []string `json:"product_urls"`
	ArticleURLs  []string `json:"article_urls"`

	seen map[string]bool
}

// NewBuckets returns empty buckets.
func NewBuckets() *Buckets {
	return &Buckets{seen: make(map[string]bool)}
}

// Add classifies rawURL and appends it to its bucket. It reports whether
// the URL was new and classifiable.
func (b *Buckets) Add(rawURL string) bool {
	kind, ok := Classify(rawURL)
	if !ok {
		return false
	}
	if b.seen == nil {
		b.seen = make(map[string]bool)
	}
	key := fetcher.CanonicalizeURL(rawURL)
	if b.seen[key] {
		return false
	}
	b.seen[key] = true

	switch kind {
	case catalog.KindCategory:
		b.CategoryURLs = append(b.CategoryURLs, rawURL)
	case catalog.KindProduct:
		b.ProductURLs = append(b.ProductURLs, rawURL)
	case catalog.KindArticle:
		b.ArticleURLs = append(b.ArticleURLs, rawURL)
	}
	return true
}

// Total returns the number of URLs across all buckets.
func (b *Buckets) Total() int {
	return len(b.CategoryURLs) + len(b.ProductURLs) + len(b.ArticleURLs)
}

// Empty reports whether nothing was discovered.
func (b *Buckets) Empty() bool { return b.Total() == 0 }

// Discoverer walks robots.txt, sitemaps and the homepage of one site.
type Discoverer struct {
	fetcher PageFetcher
	cfg     config.DiscoveryConfig
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Discoverer.
func New(f PageFetcher, cfg config.DiscoveryConfig, logger *slog.Logger, metrics *observability.Metrics) *Discoverer {
	return &Discoverer{
		fetcher: f,
		cfg:     cfg,
		logger:  logger.With("component", "discovery"),
		metrics: metrics,
	}
}

// run carries the state of one Discover call.
type run struct {
	*Discoverer
	origin   *url.URL
	robots   *robotsRules
	buckets  *Buckets
	sitemaps map[string]bool
	attempts int
	failures int
}

// Discover returns the URL buckets for baseURL. Individual fetch failures
// are logged and skipped. When every fetch failed the (empty) buckets are
// returned together with types.ErrHostUnreachable.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*Buckets, error) {
	origin, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return NewBuckets(), fmt.Errorf("discover %q: %w", baseURL, types.ErrInvalidURL)
	}
	origin = &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"}

	r := &run{
		Discoverer: d,
		origin:     origin,
		buckets:    NewBuckets(),
		sitemaps:   make(map[string]bool),
	}

	var sitemapURLs []string
	if d.cfg.UseRobotsTxt {
		if page := r.fetch(ctx, r.resolve("/robots.txt")); page != nil {
			r.robots = parseRobots(string(page.Body))
			sitemapURLs = append(sitemapURLs, r.robots.sitemaps...)
		}
	}
	for _, p := range d.cfg.SitemapPaths {
		sitemapURLs = append(sitemapURLs, r.resolve(p))
	}

	for _, sm := range sitemapURLs {
		if err := ctx.Err(); err != nil {
			return r.buckets, err
		}
		r.crawlSitemap(ctx, sm, 0)
	}

	if d.cfg.CrawlHomepage {
		if err := ctx.Err(); err != nil {
			return r.buckets, err
		}
		r.crawlHomepage(ctx)
	}

	d.metrics.RecordDiscovered(r.buckets.Total())
	d.logger.Info("discovery complete",
		"base_url", origin.String(),
		"categories", len(r.buckets.CategoryURLs),
		"products", len(r.buckets.ProductURLs),
		"articles", len(r.buckets.ArticleURLs),
		"fetches", r.attempts,
		"failed", r.failures,
	)

	if err := ctx.Err(); err != nil {
		return r.buckets, err
	}
	if r.attempts > 0 && r.failures == r.attempts {
		return r.buckets, fmt.Errorf("discover %s: %w", origin.Host, types.ErrHostUnreachable)
	}
	return r.buckets, nil
}

// crawlSitemap adds the page URLs of one sitemap and recurses into
// sitemap indexes up to the configured depth.
func (r *run) crawlSitemap(ctx context.Context, sitemapURL string, depth int) {
	key := fetcher.CanonicalizeURL(sitemapURL)
	if sitemapURL == "" || r.sitemaps[key] {
		return
	}
	r.sitemaps[key] = true

	page := r.fetch(ctx, sitemapURL)
	if page == nil {
		return
	}

	sm, err := parser.ParseSitemap(page.Body)
	if err != nil {
		r.logger.Warn("unreadable sitemap", "url", sitemapURL, "error", err)
		return
	}

	added := 0
	for _, loc := range sm.Locs() {
		if r.accept(loc) {
			added++
		}
	}
	r.logger.Debug("sitemap crawled", "url", sitemapURL, "depth", depth, "urls", len(sm.URLs), "added", added)

	children := sm.Children()
	if len(children) == 0 {
		return
	}
	if depth+1 >= r.cfg.MaxSitemapDepth {
		r.logger.Debug("sitemap depth limit reached", "url", sitemapURL, "skipped", len(children))
		return
	}
	for _, child := range children {
		if ctx.Err() != nil {
			return
		}
		r.crawlSitemap(ctx, child, depth+1)
	}
}

// crawlHomepage scans every anchor on the homepage.
func (r *run) crawlHomepage(ctx context.Context) {
	page := r.fetch(ctx, r.origin.String())
	if page == nil {
		return
	}
	doc, err := parser.ParsePage(page)
	if err != nil {
		r.logger.Warn("unparsable homepage", "url", page.URL, "error", err)
		return
	}
	added := 0
	for _, link := range doc.Links() {
		if r.accept(link) {
			added++
		}
	}
	r.logger.Debug("homepage crawled", "url", page.URL, "links", len(doc.Links()), "added", added)
}

// accept keeps same-site URLs robots.txt allows.
func (r *run) accept(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if !sameSite(u.Hostname(), r.origin.Hostname()) {
		return false
	}
	if !r.robots.allows(u.EscapedPath()) {
		return false
	}
	u.Fragment = ""
	return r.buckets.Add(u.String())
}

// fetch returns nil on any failure. Already-visited URLs are not counted
// as attempts.
func (r *run) fetch(ctx context.Context, rawURL string) *types.Page {
	page, err := r.fetcher.Fetch(ctx, rawURL)
	if errors.Is(err, types.ErrAlreadyVisited) {
		return nil
	}
	r.attempts++
	if err != nil {
		r.failures++
		r.logger.Warn("discovery fetch failed", "url", rawURL, "error", err)
		return nil
	}
	if page == nil || len(page.Body) == 0 {
		r.logger.Debug("discovery fetch empty", "url", rawURL)
		return nil
	}
	return page
}

func (r *run) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return r.origin.ResolveReference(ref).String()
}
