// Package importer drives one catalog import: discover URLs, fetch and
// extract each page, and create the resulting records in a Store.
//
// Every entity moves through Discovered, Extracted and then exactly one of
// Created, SkippedDuplicate, SkippedInvalid or Failed. A failure is scoped
// to its URL; the run always continues with the next one.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/discovery"
	"github.com/rehmanul/okkyno.com-sub000/internal/extract"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
	"github.com/rehmanul/okkyno.com-sub000/internal/synth"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// Store is the persistence surface the importer writes through.
type Store interface {
	CreateCategory(ctx context.Context, in catalog.NewCategory) (*catalog.Category, catalog.Outcome, error)
	CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error)
	CreateBlogPost(ctx context.Context, in catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error)
	ExistsBySlug(ctx context.Context, kind catalog.Kind, slug string) (bool, error)
}

// Fetcher retrieves pages.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*types.Page, error)
}

// Discoverer produces the URL buckets for a site.
type Discoverer interface {
	Discover(ctx context.Context, baseURL string) (*discovery.Buckets, error)
}

// resetter is implemented by fetchers that keep a visited set.
type resetter interface {
	Reset()
}

// Importer runs catalog imports. It is not safe for concurrent Run calls;
// use a Runner to serialize background runs.
type Importer struct {
	fetcher    Fetcher
	store      Store
	discoverer Discoverer
	extractor  *extract.Extractor
	generator  *synth.Generator
	cfg        config.ImportConfig
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option customizes an Importer.
type Option func(*Importer)

// WithDiscoverer replaces the sitemap/homepage discoverer.
func WithDiscoverer(d Discoverer) Option {
	return func(im *Importer) { im.discoverer = d }
}

// WithExtractor replaces the page extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(im *Importer) { im.extractor = x }
}

// WithGenerator replaces the synthetic catalog generator.
func WithGenerator(g *synth.Generator) Option {
	return func(im *Importer) { im.generator = g }
}

// New creates an Importer. metrics may be nil.
func New(f Fetcher, s Store, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Importer {
	im := &Importer{
		fetcher: f,
		store:   s,
		cfg:     cfg.Import,
		logger:  logger.With("component", "importer"),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(im)
	}

	if im.extractor == nil || im.generator == nil {
		synthesizer := extract.NewSynthesizer(cfg.Import.Seed)
		if im.extractor == nil {
			im.extractor = extract.New(synthesizer, extract.WithDefaultAuthor(cfg.Import.DefaultAuthorID))
		}
		if im.generator == nil {
			im.generator = synth.New(synthesizer, cfg.Import.DefaultAuthorID)
		}
	}
	if im.discoverer == nil {
		im.discoverer = discovery.New(f, cfg.Discovery, logger, metrics)
	}
	if im.cfg.FallbackCategoryID < 1 {
		im.cfg.FallbackCategoryID = 1
	}
	return im
}

// runState is the per-run bookkeeping shared by the import stages.
type runState struct {
	sum          *Summary
	categories   map[string]int64
	featuredLeft int
}

func (im *Importer) newRunState(sum *Summary) *runState {
	return &runState{
		sum:          sum,
		categories:   make(map[string]int64),
		featuredLeft: im.cfg.FeaturedCount,
	}
}

// Run performs a full scrape import against the configured base URL.
//
// The returned Summary is never nil. The error is non-nil only when the
// context ends, the base URL is invalid, or the base host could not be
// reached at all and no synthetic fallback is configured.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	sum := newSummary(SourceScrape, im.cfg.BaseURL)
	im.metrics.RunStarted()
	defer im.metrics.RunFinished()
	defer sum.finish()

	if r, ok := im.fetcher.(resetter); ok {
		r.Reset()
	}

	im.logger.Info("import run started", "base_url", im.cfg.BaseURL)

	buckets, err := im.discoverer.Discover(ctx, im.cfg.BaseURL)
	var unreachable error
	switch {
	case errors.Is(err, types.ErrHostUnreachable):
		sum.HostUnreachable = true
		unreachable = err
		im.logger.Warn("base host unreachable", "base_url", im.cfg.BaseURL)
	case err != nil:
		return sum, fmt.Errorf("discover: %w", err)
	}
	if buckets == nil {
		buckets = discovery.NewBuckets()
	}
	sum.Categories.Discovered = len(buckets.CategoryURLs)
	sum.Products.Discovered = len(buckets.ProductURLs)
	sum.Articles.Discovered = len(buckets.ArticleURLs)

	if buckets.Empty() {
		if !im.cfg.SynthesizeWhenEmpty {
			im.logger.Info("nothing discovered, nothing imported")
			return sum, unreachable
		}
		im.logger.Info("nothing discovered, importing synthetic catalog")
		sum.Source = SourceSynthetic
		if err := im.importSynthetic(ctx, sum); err != nil {
			return sum, err
		}
		im.logFinished(sum)
		return sum, nil
	}

	rs := im.newRunState(sum)
	stages := []struct {
		kind  catalog.Kind
		urls  []string
		limit int
		run   func(context.Context, *runState, string) Result
	}{
		{catalog.KindCategory, buckets.CategoryURLs, im.cfg.MaxCategories, im.importCategory},
		{catalog.KindProduct, buckets.ProductURLs, im.cfg.MaxProducts, im.importProduct},
		{catalog.KindArticle, buckets.ArticleURLs, im.cfg.MaxArticles, im.importArticle},
	}
	for _, stage := range stages {
		urls := capURLs(stage.urls, stage.limit)
		if len(urls) < len(stage.urls) {
			im.logger.Info("bucket capped",
				"kind", stage.kind,
				"discovered", len(stage.urls),
				"limit", stage.limit,
			)
		}
		for _, rawURL := range urls {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			im.record(sum, stage.run(ctx, rs, rawURL))
		}
	}

	im.logFinished(sum)
	return sum, nil
}

// RunSynthetic imports a generated catalog without touching the network.
func (im *Importer) RunSynthetic(ctx context.Context) (*Summary, error) {
	sum := newSummary(SourceSynthetic, "")
	im.metrics.RunStarted()
	defer im.metrics.RunFinished()
	defer sum.finish()

	im.logger.Info("synthetic import started",
		"products", im.cfg.SyntheticProducts,
		"articles", im.cfg.SyntheticArticles,
	)
	if err := im.importSynthetic(ctx, sum); err != nil {
		return sum, err
	}
	im.logFinished(sum)
	return sum, nil
}

func (im *Importer) importSynthetic(ctx context.Context, sum *Summary) error {
	rs := im.newRunState(sum)

	for _, in := range im.generator.Categories() {
		if err := ctx.Err(); err != nil {
			return err
		}
		im.record(sum, im.createCategory(ctx, rs, in, ""))
	}
	for _, in := range im.generator.Products(im.cfg.SyntheticProducts) {
		if err := ctx.Err(); err != nil {
			return err
		}
		im.record(sum, im.createProduct(ctx, rs, in, ""))
	}
	for _, in := range im.generator.Articles(im.cfg.SyntheticArticles) {
		if err := ctx.Err(); err != nil {
			return err
		}
		im.record(sum, im.createArticle(ctx, in, ""))
	}
	return nil
}

func (im *Importer) importCategory(ctx context.Context, rs *runState, rawURL string) Result {
	res := Result{Kind: catalog.KindCategory, URL: rawURL}
	doc, failed, ok := im.load(ctx, res)
	if !ok {
		return failed
	}
	in, ok := im.extractor.Category(doc)
	if !ok {
		return res.withErr(StatusInvalid, stageErr(res, "extract", types.ErrExtractionEmpty))
	}
	return im.createCategory(ctx, rs, *in, rawURL)
}

func (im *Importer) importProduct(ctx context.Context, rs *runState, rawURL string) Result {
	res := Result{Kind: catalog.KindProduct, URL: rawURL}
	doc, failed, ok := im.load(ctx, res)
	if !ok {
		return failed
	}
	in, ok := im.extractor.Product(doc)
	if !ok {
		return res.withErr(StatusInvalid, stageErr(res, "extract", types.ErrExtractionEmpty))
	}
	return im.createProduct(ctx, rs, *in, rawURL)
}

func (im *Importer) importArticle(ctx context.Context, _ *runState, rawURL string) Result {
	res := Result{Kind: catalog.KindArticle, URL: rawURL}
	doc, failed, ok := im.load(ctx, res)
	if !ok {
		return failed
	}
	in, ok := im.extractor.Article(doc)
	if !ok {
		return res.withErr(StatusInvalid, stageErr(res, "extract", types.ErrExtractionEmpty))
	}
	return im.createArticle(ctx, *in, rawURL)
}

// load fetches and parses res.URL. On failure it returns the terminal
// Result for the URL.
func (im *Importer) load(ctx context.Context, res Result) (*parser.Document, Result, bool) {
	page, err := im.fetcher.Fetch(ctx, res.URL)
	if err != nil {
		if errors.Is(err, types.ErrAlreadyVisited) {
			return nil, res.withErr(StatusDuplicate, err), false
		}
		return nil, res.withErr(StatusFailed, stageErr(res, "fetch", err)), false
	}
	doc, err := parser.ParsePage(page)
	if err != nil {
		return nil, res.withErr(StatusFailed, stageErr(res, "parse", err)), false
	}
	return doc, res, true
}

func (im *Importer) createCategory(ctx context.Context, rs *runState, in catalog.NewCategory, rawURL string) Result {
	res := im.save(ctx, Result{Kind: catalog.KindCategory, URL: rawURL}, in.Slug,
		func(ctx context.Context) (int64, catalog.Outcome, error) {
			c, outcome, err := im.store.CreateCategory(ctx, in)
			if c == nil {
				return 0, outcome, err
			}
			return c.ID, outcome, err
		})

	switch res.Status {
	case StatusCreated:
		rs.categories[in.Slug] = res.ID
	case StatusDuplicate:
		if c, err := im.store.GetCategoryBySlug(ctx, in.Slug); err == nil {
			rs.categories[in.Slug] = c.ID
		}
	}
	return res
}

func (im *Importer) createProduct(ctx context.Context, rs *runState, in catalog.NewProduct, rawURL string) Result {
	in.CategoryID = im.resolveCategory(ctx, rs, in.CategoryHint, rawURL)
	in.Featured = rs.featuredLeft > 0

	res := im.save(ctx, Result{Kind: catalog.KindProduct, URL: rawURL}, in.Slug,
		func(ctx context.Context) (int64, catalog.Outcome, error) {
			p, outcome, err := im.store.CreateProduct(ctx, in)
			if p == nil {
				return 0, outcome, err
			}
			return p.ID, outcome, err
		})

	if res.Status == StatusCreated && in.Featured {
		rs.featuredLeft--
		rs.sum.Featured = append(rs.sum.Featured, res.ID)
	}
	return res
}

func (im *Importer) createArticle(ctx context.Context, in catalog.NewBlogPost, rawURL string) Result {
	return im.save(ctx, Result{Kind: catalog.KindArticle, URL: rawURL}, in.Slug,
		func(ctx context.Context) (int64, catalog.Outcome, error) {
			b, outcome, err := im.store.CreateBlogPost(ctx, in)
			if b == nil {
				return 0, outcome, err
			}
			return b.ID, outcome, err
		})
}

// save checks slug existence and creates the record, mapping the store's
// outcome onto a terminal Status.
func (im *Importer) save(ctx context.Context, res Result, s string, create func(context.Context) (int64, catalog.Outcome, error)) Result {
	res.Slug = s

	exists, err := im.store.ExistsBySlug(ctx, res.Kind, s)
	if err != nil {
		return res.withErr(StatusFailed, stageErr(res, "exists", err))
	}
	if exists {
		res.Status = StatusDuplicate
		return res
	}

	id, outcome, err := create(ctx)
	switch {
	case outcome == catalog.Invalid:
		return res.withErr(StatusInvalid, stageErr(res, "validate", err))
	case errors.Is(err, types.ErrDuplicateSlug):
		res.Status = StatusDuplicate
		return res
	case err != nil:
		return res.withErr(StatusFailed, stageErr(res, "create", err))
	case outcome == catalog.AlreadyExists:
		res.Status = StatusDuplicate
		return res
	}
	res.ID = id
	res.Status = StatusCreated
	return res
}

// resolveCategory picks a category id for a product: the hinted category
// by slug, then a category of this run named in the product URL path,
// then the fallback id.
func (im *Importer) resolveCategory(ctx context.Context, rs *runState, hint, rawURL string) int64 {
	if s := slug.Make(hint); s != "" {
		if id, ok := rs.categories[s]; ok {
			return id
		}
		c, err := im.store.GetCategoryBySlug(ctx, s)
		if err == nil {
			return c.ID
		}
		if !errors.Is(err, types.ErrNotFound) {
			im.logger.Debug("category lookup failed", "slug", s, "error", err)
		}
	}

	if u, err := url.Parse(rawURL); err == nil && rawURL != "" {
		for _, seg := range slug.Segments(u.Path) {
			if id, ok := rs.categories[seg]; ok {
				return id
			}
		}
	}
	return im.cfg.FallbackCategoryID
}

func (im *Importer) record(sum *Summary, res Result) {
	sum.add(res)
	im.metrics.RecordResult(string(res.Status))

	attrs := []any{"kind", res.Kind, "slug", res.Slug}
	if res.URL != "" {
		attrs = append(attrs, "url", res.URL)
	}
	switch res.Status {
	case StatusCreated:
		im.logger.Debug("entity created", append(attrs, "id", res.ID)...)
	case StatusDuplicate:
		im.logger.Info("entity may already exist, skipped", attrs...)
	case StatusInvalid:
		im.logger.Info("entity skipped", append(attrs, "error", res.Err)...)
	case StatusFailed:
		im.logger.Warn("entity import failed", append(attrs, "error", res.Err)...)
	}
}

func (im *Importer) logFinished(sum *Summary) {
	im.logger.Info("import run finished",
		"source", sum.Source,
		"categories", sum.Categories.Created,
		"products", sum.Products.Created,
		"articles", sum.Articles.Created,
		"failed", sum.Categories.Failed+sum.Products.Failed+sum.Articles.Failed,
		"elapsed", sum.Duration(),
	)
}

func stageErr(res Result, stage string, err error) error {
	return &types.ImportError{Kind: string(res.Kind), URL: res.URL, Stage: stage, Err: err}
}

// capURLs bounds a bucket. A non-positive limit leaves it unbounded.
func capURLs(urls []string, limit int) []string {
	if limit > 0 && len(urls) > limit {
		return urls[:limit]
	}
	return urls
}
