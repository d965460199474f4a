package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/discovery"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/store"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const base = "https://shop.test"

// fakeFetcher serves canned bodies; every other URL and every URL in fail
// returns a FetchError.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fail    map[string]bool
	fetched []string
	resets  int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, fail: map[string]bool{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*types.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, rawURL)
	if f.fail[rawURL] {
		return nil, &types.FetchError{URL: rawURL, StatusCode: http.StatusInternalServerError, Err: types.ErrMaxRetries}
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &types.FetchError{URL: rawURL, StatusCode: http.StatusNotFound, Err: types.ErrMaxRetries}
	}
	return types.NewBrowserPage(rawURL, rawURL, []byte(body), time.Millisecond), nil
}

func (f *fakeFetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// staticDiscoverer returns fixed buckets.
type staticDiscoverer struct {
	buckets *discovery.Buckets
	err     error
	wait    chan struct{}
}

func (d *staticDiscoverer) Discover(ctx context.Context, _ string) (*discovery.Buckets, error) {
	if d.wait != nil {
		select {
		case <-d.wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.buckets == nil {
		return discovery.NewBuckets(), d.err
	}
	return d.buckets, d.err
}

// countingStore counts create attempts on top of a memory store.
type countingStore struct {
	*store.MemoryStore
	mu             sync.Mutex
	productCreates int
}

func (s *countingStore) CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error) {
	s.mu.Lock()
	s.productCreates++
	s.mu.Unlock()
	return s.MemoryStore.CreateProduct(ctx, in)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Import.BaseURL = base
	cfg.Import.Seed = 42
	cfg.Discovery.CrawlHomepage = false
	return cfg
}

func productPage(name, price string) string {
	return fmt.Sprintf(`<html><head><title>%s | Shop</title></head>
<body><h1 class="product-title">%s</h1><span class="price">$%s</span>
<div class="product-description"><p>A sturdy pick for any garden.</p></div></body></html>`, name, name, price)
}

// --- Slug collisions ---

func TestRunSkipsNamesThatNormalizeToSameSlug(t *testing.T) {
	f := newFakeFetcher()
	buckets := discovery.NewBuckets()
	for u, name := range map[string]string{
		base + "/products/cedar-bed-classic": "Cedar Bed!",
		base + "/products/cedar-bed-plain":   "cedar bed",
	} {
		f.pages[u] = productPage(name, "129.00")
	}
	require.True(t, buckets.Add(base+"/products/cedar-bed-classic"))
	require.True(t, buckets.Add(base+"/products/cedar-bed-plain"))

	s := store.NewMemoryStore()
	im := New(f, s, testConfig(), testLogger, nil, WithDiscoverer(&staticDiscoverer{buckets: buckets}))

	sum, err := im.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Products.Created)
	assert.Equal(t, 1, sum.Products.Duplicate)
	assert.Zero(t, sum.Products.Failed)
	assert.Zero(t, sum.Products.Invalid)
	assert.Empty(t, sum.Failures())

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "cedar-bed", products[0].Slug)
	assert.Equal(t, "Cedar Bed!", products[0].Name)
}

// --- Bounded fan-out ---

func TestRunCapsProductBucket(t *testing.T) {
	f := newFakeFetcher()
	buckets := discovery.NewBuckets()
	for i := 1; i <= 500; i++ {
		u := fmt.Sprintf("%s/products/item-%d", base, i)
		f.pages[u] = productPage(fmt.Sprintf("Garden Item %d", i), "9.99")
		require.True(t, buckets.Add(u))
	}

	s := &countingStore{MemoryStore: store.NewMemoryStore()}
	im := New(f, s, testConfig(), testLogger, nil, WithDiscoverer(&staticDiscoverer{buckets: buckets}))

	sum, err := im.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, s.productCreates)
	assert.Equal(t, 200, f.fetchCount())
	assert.Equal(t, 500, sum.Products.Discovered)
	assert.Equal(t, 200, sum.Products.Attempted)
	assert.Equal(t, 200, sum.Products.Created)
}

// --- Fault isolation ---

func TestRunIsolatesFailingURL(t *testing.T) {
	f := newFakeFetcher()
	buckets := discovery.NewBuckets()
	var urls []string
	for i := 1; i <= 100; i++ {
		u := fmt.Sprintf("%s/products/item-%d", base, i)
		f.pages[u] = productPage(fmt.Sprintf("Garden Item %d", i), "12.50")
		buckets.Add(u)
		urls = append(urls, u)
	}
	f.fail[urls[36]] = true

	metrics := observability.NewMetrics(testLogger)
	s := store.NewMemoryStore()
	im := New(f, s, testConfig(), testLogger, metrics, WithDiscoverer(&staticDiscoverer{buckets: buckets}))

	sum, err := im.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 100, f.fetchCount())
	assert.Equal(t, 99, sum.Products.Created)
	assert.Equal(t, 1, sum.Products.Failed)

	failures := sum.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, urls[36], failures[0].URL)
	var ie *types.ImportError
	require.True(t, errors.As(failures[0].Err, &ie))
	assert.Equal(t, "fetch", ie.Stage)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 99)
	for _, p := range products {
		assert.Equal(t, int64(1), p.CategoryID, "fallback category")
	}

	assert.Len(t, sum.Featured, 8)
	featured := 0
	for _, p := range products {
		if p.Featured {
			featured++
		}
	}
	assert.Equal(t, 8, featured)

	assert.Equal(t, int64(99), metrics.EntitiesCreated.Load())
	assert.Equal(t, int64(1), metrics.EntitiesFailed.Load())
	assert.Equal(t, 1, f.resets)
}

// --- End to end ---

const sitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://shop.test/collections/seeds</loc></url>
  <url><loc>https://shop.test/collections/garden-tools</loc></url>
  <url><loc>https://shop.test/products/heirloom-tomato-seeds</loc></url>
  <url><loc>https://shop.test/products/sweet-basil-seeds</loc></url>
  <url><loc>https://shop.test/collections/garden-tools/products/hori-hori</loc></url>
  <url><loc>https://shop.test/blog/how-to-grow-tomatoes</loc></url>
  <url><loc>https://shop.test/blog/winter-garden-checklist</loc></url>
</urlset>`

func endToEndSite() *fakeFetcher {
	f := newFakeFetcher()
	f.pages[base+"/sitemap.xml"] = sitemapXML
	f.pages[base+"/collections/seeds"] = `<html><head><title>Seeds | Shop</title></head>
<body><h1 class="collection-title">Seeds</h1><div class="collection-description">Heirloom seeds.</div></body></html>`
	f.pages[base+"/collections/garden-tools"] = `<html><head><title>Garden Tools | Shop</title></head>
<body><h1>Garden Tools</h1></body></html>`
	f.pages[base+"/products/heirloom-tomato-seeds"] = `<html><head><title>Heirloom Tomato Seeds | Shop</title></head>
<body><nav class="breadcrumb"><a href="/">Home</a><a href="/collections/seeds">Seeds</a></nav>
<h1 class="product-title">Heirloom Tomato Seeds</h1><span class="price">$4.95</span></body></html>`
	f.pages[base+"/products/sweet-basil-seeds"] = `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"Sweet Basil Seeds","category":"Garden > Seeds","offers":{"@type":"Offer","price":"3.49"}}</script>
</head><body><h1>Sweet Basil Seeds</h1></body></html>`
	f.pages[base+"/collections/garden-tools/products/hori-hori"] = productPage("Hori Hori Knife", "34.00")
	f.pages[base+"/blog/how-to-grow-tomatoes"] = `<html><head><meta property="og:title" content="How to Grow Tomatoes"></head>
<body><article><p>Start seeds indoors six weeks before the last frost.</p></article></body></html>`
	f.pages[base+"/blog/winter-garden-checklist"] = `<html><body><h1>Winter Garden Checklist</h1></body></html>`
	return f
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := endToEndSite()
	s := store.NewMemoryStore()
	im := New(f, s, testConfig(), testLogger, nil)

	sum, err := im.Run(ctx)
	require.NoError(t, err)
	assert.False(t, sum.HostUnreachable)
	assert.Equal(t, 2, sum.Categories.Created)
	assert.Equal(t, 3, sum.Products.Created)
	assert.Equal(t, 2, sum.Articles.Created)
	assert.Empty(t, sum.Failures())

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	ids := map[string]int64{}
	for _, c := range categories {
		ids[c.Slug] = c.ID
	}

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	want := map[string]int64{
		"heirloom-tomato-seeds": ids["seeds"],
		"sweet-basil-seeds":     ids["seeds"],
		"hori-hori-knife":       ids["garden-tools"],
	}
	for _, p := range products {
		assert.Equal(t, want[p.Slug], p.CategoryID, p.Slug)
	}

	posts, err := s.ListBlogPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, b := range posts {
		assert.NotEmpty(t, b.Content)
		assert.NotEmpty(t, b.Excerpt)
	}

	// A second run against the same store creates nothing.
	again, err := New(endToEndSite(), s, testConfig(), testLogger, nil).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created())
	assert.Equal(t, 2, again.Categories.Duplicate)
	assert.Equal(t, 3, again.Products.Duplicate)
	assert.Equal(t, 2, again.Articles.Duplicate)

	products, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

// --- Store outcome mapping ---

type stubStore struct {
	*store.MemoryStore
	outcome catalog.Outcome
	err     error
}

func (s *stubStore) CreateBlogPost(context.Context, catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error) {
	if s.outcome == catalog.Created && s.err == nil {
		return &catalog.BlogPost{ID: 9}, catalog.Created, nil
	}
	return nil, s.outcome, s.err
}

func TestSaveMapsStoreOutcomes(t *testing.T) {
	storageErr := &types.StorageError{Backend: "stub", Op: "insert", Err: errors.New("connection reset")}
	tests := []struct {
		name    string
		outcome catalog.Outcome
		err     error
		want    Status
	}{
		{"created", catalog.Created, nil, StatusCreated},
		{"already exists", catalog.AlreadyExists, nil, StatusDuplicate},
		{"invalid", catalog.Invalid, errors.New("title: cannot be blank"), StatusInvalid},
		{"racing duplicate", catalog.Created, types.ErrDuplicateSlug, StatusDuplicate},
		{"backend failure", catalog.Created, storageErr, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubStore{MemoryStore: store.NewMemoryStore(), outcome: tt.outcome, err: tt.err}
			im := New(newFakeFetcher(), s, testConfig(), testLogger, nil)

			res := im.createArticle(context.Background(), catalog.NewBlogPost{Title: "Winter Checklist", Slug: "winter-checklist"}, "")
			assert.Equal(t, tt.want, res.Status)
			if tt.want == StatusCreated {
				assert.Equal(t, int64(9), res.ID)
			}
			if tt.want == StatusFailed {
				assert.ErrorIs(t, res.Err, storageErr)
			}
		})
	}
}

func TestExtractionEmptyIsSkipped(t *testing.T) {
	f := newFakeFetcher()
	u := base + "/blog/tips"
	f.pages[u] = `<html><body><h1>Tips</h1></body></html>`
	buckets := discovery.NewBuckets()
	buckets.Add(u)

	im := New(f, store.NewMemoryStore(), testConfig(), testLogger, nil, WithDiscoverer(&staticDiscoverer{buckets: buckets}))
	sum, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Articles.Invalid)
	assert.ErrorIs(t, sum.Results[0].Err, types.ErrExtractionEmpty)
}

// --- Unreachable host and synthetic fallback ---

func TestRunUnreachableHost(t *testing.T) {
	d := &staticDiscoverer{err: fmt.Errorf("discover shop.test: %w", types.ErrHostUnreachable)}
	im := New(newFakeFetcher(), store.NewMemoryStore(), testConfig(), testLogger, nil, WithDiscoverer(d))

	sum, err := im.Run(context.Background())
	assert.ErrorIs(t, err, types.ErrHostUnreachable)
	require.NotNil(t, sum)
	assert.True(t, sum.HostUnreachable)
	assert.Empty(t, sum.Results)
	assert.False(t, sum.FinishedAt.IsZero())
}

func TestRunSynthesizesWhenNothingDiscovered(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Import.SynthesizeWhenEmpty = true
	cfg.Import.SyntheticProducts = 10
	cfg.Import.SyntheticArticles = 4

	d := &staticDiscoverer{err: fmt.Errorf("discover shop.test: %w", types.ErrHostUnreachable)}
	s := store.NewMemoryStore()
	im := New(newFakeFetcher(), s, cfg, testLogger, nil, WithDiscoverer(d))

	sum, err := im.Run(ctx)
	require.NoError(t, err)
	assert.True(t, sum.HostUnreachable)
	assert.Equal(t, SourceSynthetic, sum.Source)
	assert.Equal(t, 10, sum.Products.Created)
	assert.Equal(t, 4, sum.Articles.Created)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum.Categories.Created, len(categories))
	valid := map[int64]bool{}
	for _, c := range categories {
		valid[c.ID] = true
	}
	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		assert.True(t, valid[p.CategoryID], p.Name)
	}
}

func TestRunSyntheticIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Import.SyntheticProducts = 5
	cfg.Import.SyntheticArticles = 3
	s := store.NewMemoryStore()

	first, err := New(newFakeFetcher(), s, cfg, testLogger, nil).RunSynthetic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Products.Created)

	second, err := New(newFakeFetcher(), s, cfg, testLogger, nil).RunSynthetic(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Categories.Created)
	assert.Equal(t, first.Categories.Created, second.Categories.Duplicate)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	f := newFakeFetcher()
	buckets := discovery.NewBuckets()
	for i := 1; i <= 5; i++ {
		u := fmt.Sprintf("%s/products/item-%d", base, i)
		f.pages[u] = productPage(fmt.Sprintf("Garden Item %d", i), "5.00")
		buckets.Add(u)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	im := New(f, store.NewMemoryStore(), testConfig(), testLogger, nil, WithDiscoverer(&staticDiscoverer{buckets: buckets}))
	sum, err := im.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Created())
	assert.Zero(t, f.fetchCount())
}

// --- Runner ---

func TestRunnerSerializesRuns(t *testing.T) {
	release := make(chan struct{})
	d := &staticDiscoverer{wait: release}
	im := New(newFakeFetcher(), store.NewMemoryStore(), testConfig(), testLogger, nil, WithDiscoverer(d))
	r := NewRunner(context.Background(), im, testLogger)

	id, err := r.Start()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = r.StartSynthetic()
	assert.ErrorIs(t, err, types.ErrRunInProgress)

	active, ok := r.Active()
	assert.True(t, ok)
	assert.Equal(t, id, active)

	run, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, RunRunning, run.State)

	close(release)
	r.Wait()

	run, ok = r.Get(id)
	require.True(t, ok)
	assert.Equal(t, RunCompleted, run.State)
	require.NotNil(t, run.Summary)
	require.NotNil(t, run.FinishedAt)

	id2, err := r.StartSynthetic()
	require.NoError(t, err)
	r.Wait()

	runs := r.List()
	require.Len(t, runs, 2)
	got, ok := r.Get(id2)
	require.True(t, ok)
	assert.Equal(t, SourceSynthetic, got.Source)
	assert.Equal(t, RunCompleted, got.State)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRunnerRecordsFailure(t *testing.T) {
	d := &staticDiscoverer{err: fmt.Errorf("discover: %w", types.ErrHostUnreachable)}
	im := New(newFakeFetcher(), store.NewMemoryStore(), testConfig(), testLogger, nil, WithDiscoverer(d))
	r := NewRunner(context.Background(), im, testLogger)

	id, err := r.Start()
	require.NoError(t, err)
	r.Wait()

	run, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, RunFailed, run.State)
	assert.Contains(t, run.Error, "unreachable")
	_, active := r.Active()
	assert.False(t, active)
}
