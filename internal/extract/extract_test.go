package extract

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
)

func newTestExtractor() *Extractor {
	synth := NewSynthesizer(42).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	return New(synth, WithDefaultAuthor(7))
}

func mustParse(t *testing.T, body, pageURL string) *parser.Document {
	t.Helper()
	doc, err := parser.Parse([]byte(body), pageURL)
	require.NoError(t, err)
	return doc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Price ---

func TestExtractPrice(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		text string
		want string
	}{
		{"$12.50 each", "12.50"},
		{"Now only $7", "7"},
		{"$1,299.00", "1299.00"},
		{"Sale 24.99 USD", "24.99"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := x.ExtractPrice(tt.text)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"12.5", "12.50", true},
		{"24.9", "24.90", true},
		{"129", "129", true},
		{"USD 1,299.00", "1299", true},
		{"$7.995", "7.995", true},
		{"0", "", false},
		{"-3.00", "", false},
		{"free", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseAmount(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, dec(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestExtractPriceFallbackRange(t *testing.T) {
	x := newTestExtractor()
	for _, text := range []string{"Contact for price", "", "Free shipping", "$0.00"} {
		for i := 0; i < 50; i++ {
			got := x.ExtractPrice(text)
			assert.False(t, got.LessThan(MinFallbackPrice), "%q gave %s", text, got)
			assert.False(t, got.GreaterThan(MaxFallbackPrice), "%q gave %s", text, got)
			assert.True(t, got.Equal(got.Round(2)))
		}
	}
}

func TestSynthesizerIsSeedable(t *testing.T) {
	a := NewSynthesizer(99)
	b := NewSynthesizer(99)
	for i := 0; i < 20; i++ {
		assert.True(t, a.Price().Equal(b.Price()))
		assert.Equal(t, a.ReviewCount(), b.ReviewCount())
	}

	s := NewSynthesizer(5)
	for i := 0; i < 100; i++ {
		r := s.Rating()
		assert.False(t, r.LessThan(MinRating))
		assert.False(t, r.GreaterThan(MaxRating))
		assert.GreaterOrEqual(t, s.Stock(), 10)
		assert.LessOrEqual(t, s.Stock(), 100)
	}
	assert.True(t, dec("13.00").Equal(*s.ComparePrice(dec("10"))))
}

func TestSKUFormat(t *testing.T) {
	x := newTestExtractor()
	sku := x.Synthesizer().SKU()
	assert.True(t, strings.HasPrefix(sku, "OKK-1772366400000-"), sku)
	assert.Len(t, sku, len("OKK-1772366400000-")+5)
}

// --- Text helpers ---

func TestStripSiteSuffix(t *testing.T) {
	assert.Equal(t, "Raised Beds", StripSiteSuffix("Raised Beds | Okkyno"))
	assert.Equal(t, "Raised Beds", StripSiteSuffix("Collection: Raised Beds – Okkyno"))
	assert.Equal(t, "Seeds", StripSiteSuffix("  Seeds  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	got := Truncate("the quick brown fox jumps over the lazy dog", 20)
	assert.Equal(t, "the quick brown...", got)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 20)

	long := strings.Repeat("héllo wörld ", 40)
	assert.LessOrEqual(t, utf8.RuneCountInString(Truncate(long, MaxExcerpt)), MaxExcerpt)
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"cherokee", "purple", "tomato", "seeds"}, Tags("Cherokee Purple Tomato Seeds (Pack of 2)"))
}

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", EmbedURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", EmbedURL("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "https://player.vimeo.com/video/76979871", EmbedURL("https://vimeo.com/76979871"))
	assert.Empty(t, EmbedURL("https://example.com/video.mp4"))
}

// --- Category ---

func TestCategoryExtract(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head>
		<title>Raised Beds | Okkyno</title>
		<meta property="og:image" content="/img/beds.jpg">
		</head><body>
		<h1 class="collection-title">Raised Beds</h1>
		<div class="collection-description"><p>Cedar and metal beds.</p></div>
		</body></html>`, "https://okkyno.com/collections/raised-beds")

	c, ok := x.Category(doc)
	require.True(t, ok)
	assert.Equal(t, "Raised Beds", c.Name)
	assert.Equal(t, "raised-beds", c.Slug)
	assert.Equal(t, "Cedar and metal beds.", c.Description)
	assert.Equal(t, "https://okkyno.com/img/beds.jpg", c.ImageURL)
	assert.Equal(t, "https://okkyno.com/collections/raised-beds", c.SourceURL)
	assert.NoError(t, c.Validate())
}

func TestCategoryDefaults(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head><title>Seed Starting – Okkyno</title></head><body></body></html>`,
		"https://okkyno.com/category/seed-starting/")

	c, ok := x.Category(doc)
	require.True(t, ok)
	assert.Equal(t, "Seed Starting", c.Name)
	assert.Equal(t, DefaultCategoryDescription("Seed Starting"), c.Description)
	assert.Equal(t, catalog.PlaceholderCategoryImage, c.ImageURL)
}

func TestCategorySkipsUnnamedPages(t *testing.T) {
	x := newTestExtractor()
	for _, body := range []string{
		`<html><body><p>nothing here</p></body></html>`,
		`<html><body><h1>X</h1></body></html>`,
		`<html><body><h1>!!!</h1></body></html>`,
	} {
		_, ok := x.Category(mustParse(t, body, "https://okkyno.com/category/x"))
		assert.False(t, ok, body)
	}
}

// --- Product ---

const productHTML = `<!DOCTYPE html>
<html><head>
<title>Cherokee Purple Tomato Seeds | Okkyno</title>
<meta property="og:image" content="https://cdn.example.com/tomato-1.jpg">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Product","name":"Cherokee Purple Tomato Seeds",
 "category":"Seeds > Tomato Seeds",
 "image":["https://cdn.example.com/tomato-1.jpg","https://cdn.example.com/tomato-2.jpg"],
 "offers":{"@type":"Offer","price":"24.99","availability":"https://schema.org/InStock"},
 "aggregateRating":{"@type":"AggregateRating","ratingValue":4.7,"reviewCount":120}}
</script>
</head><body>
<img src="/logo.png" alt="logo">
<nav class="breadcrumb"><a href="/">Home</a><a href="/collections/seeds">Seeds</a></nav>
<h1 class="product_title">Cherokee Purple Tomato Seeds</h1>
<p class="price"><del><span class="amount">$29.99</span></del> <ins><span class="amount">$24.99</span></ins></p>
<div class="product__description">
  <p><em>Solanum lycopersicum</em>. An heirloom that is easy to grow in containers.</p>
  <p>Dimensions: 4 x 6 in. Weight: 0.5 oz</p>
</div>
<img data-src="//cdn.example.com/tomato-3.jpg">
<img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=">
<img src="/icons/cart.svg">
<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ"></iframe>
</body></html>`

func TestProductExtract(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, productHTML, "https://okkyno.com/products/cherokee-purple-tomato-seeds")

	p, ok := x.Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Cherokee Purple Tomato Seeds", p.Name)
	assert.Equal(t, "cherokee-purple-tomato-seeds", p.Slug)
	assert.True(t, dec("24.99").Equal(p.Price), "price %s", p.Price)
	require.NotNil(t, p.ComparePrice)
	assert.True(t, dec("29.99").Equal(*p.ComparePrice))
	assert.Equal(t, []string{
		"https://cdn.example.com/tomato-1.jpg",
		"https://cdn.example.com/tomato-2.jpg",
		"https://cdn.example.com/tomato-3.jpg",
	}, p.ImageURLs)
	assert.Equal(t, p.ImageURLs[0], p.ImageURL)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", p.VideoURL)
	assert.Equal(t, "Tomato Seeds", p.CategoryHint)
	assert.Equal(t, "Solanum lycopersicum", p.BotanicalName)
	assert.Equal(t, catalog.DifficultyBeginner, p.Difficulty)
	assert.Equal(t, "4 x 6 in", p.Dimensions)
	assert.Equal(t, "0.5 oz", p.Weight)
	assert.True(t, dec("4.7").Equal(p.Rating))
	assert.Equal(t, 120, p.ReviewCount)
	assert.GreaterOrEqual(t, p.Stock, 10)
	assert.Contains(t, p.Tags, "tomato")
	assert.LessOrEqual(t, utf8.RuneCountInString(p.ShortDescription), MaxShortDescription)
	assert.Zero(t, p.CategoryID)

	p.CategoryID = 1
	assert.NoError(t, p.Validate())
}

func TestProductSparsePageSynthesizes(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head><title>Garden Trowel | Okkyno</title></head>
		<body><div class="breadcrumbs"><a href="/">Home</a><a href="/shop/tools">Hand Tools</a><a href="#">Garden Trowel</a></div>
		<p class="price">Contact for price</p></body></html>`,
		"https://okkyno.com/shop/garden-trowel")

	p, ok := x.Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Garden Trowel", p.Name)
	assert.False(t, p.Price.LessThan(MinFallbackPrice))
	assert.False(t, p.Price.GreaterThan(MaxFallbackPrice))
	require.NotNil(t, p.ComparePrice)
	assert.True(t, p.ComparePrice.GreaterThan(p.Price))
	assert.Equal(t, catalog.PlaceholderProductImage, p.ImageURL)
	assert.Equal(t, []string{catalog.PlaceholderProductImage}, p.ImageURLs)
	assert.Equal(t, "Hand Tools", p.CategoryHint)
	assert.NotEmpty(t, p.Description)
	assert.False(t, p.Rating.LessThan(MinRating))
	assert.NotEmpty(t, p.SKU)

	p.CategoryID = 1
	assert.NoError(t, p.Validate())
}

func TestProductOutOfStock(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head><script type="application/ld+json">
		{"@type":"Product","name":"Copper Watering Can","offers":{"price":45,"availability":"https://schema.org/OutOfStock"}}
		</script></head><body></body></html>`, "https://okkyno.com/products/copper-watering-can")

	p, ok := x.Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Copper Watering Can", p.Name)
	assert.Equal(t, 0, p.Stock)
	assert.True(t, dec("45").Equal(p.Price))
}

func TestProductStructuredPrice(t *testing.T) {
	tests := []struct {
		name string
		head string
		body string
		want string
	}{
		{
			name: "json-ld number",
			head: `<script type="application/ld+json">{"@type":"Product","name":"Bamboo Plant Stakes","offers":{"price":12.50}}</script>`,
			want: "12.50",
		},
		{
			name: "json-ld string",
			head: `<script type="application/ld+json">{"@type":"Product","name":"Bamboo Plant Stakes","offers":[{"price":"24.9"}]}</script>`,
			want: "24.90",
		},
		{
			name: "price meta",
			head: `<meta property="product:price:amount" content="24.9">`,
			want: "24.90",
		},
		{
			name: "itemprop content",
			body: `<span itemprop="price" content="8.5">Our price: 8.5</span>`,
			want: "8.50",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExtractor()
			page := `<html><head>` + tt.head + `</head><body><h1>Bamboo Plant Stakes</h1>` + tt.body + `</body></html>`
			p, ok := x.Product(mustParse(t, page, "https://okkyno.com/products/bamboo-plant-stakes"))
			require.True(t, ok)
			assert.True(t, dec(tt.want).Equal(p.Price), "price %s", p.Price)
		})
	}
}

func TestProductSpecificationTable(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><body>
		<h1 class="product-title">English Lavender Plant</h1>
		<table class="product-specs">
			<tr><th>Botanical Name</th><td>Lavandula angustifolia</td></tr>
			<tr><th>Mature Dimensions</th><td>24 x 18 in</td></tr>
		</table>
		<dl><dt>Shipping Weight</dt><dd>2 lbs</dd></dl>
		</body></html>`, "https://okkyno.com/products/english-lavender-plant")

	p, ok := x.Product(doc)
	require.True(t, ok)
	assert.Equal(t, "Lavandula angustifolia", p.BotanicalName)
	assert.Equal(t, "24 x 18 in", p.Dimensions)
	assert.Equal(t, "2 lbs", p.Weight)
}

// --- Article ---

func TestArticleExtract(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head>
		<title>How to Prune Tomatoes | Okkyno</title>
		<meta property="og:title" content="How to Prune Tomatoes">
		<meta name="description" content="Pruning suckers for bigger fruit.">
		<meta property="article:section" content="Vegetables">
		</head><body>
		<article><div class="entry-content">
			<p>Remove suckers weekly.</p>
			<script>track()</script>
			<form><input name="email"></form>
			<img src="/img/prune.jpg">
		</div></article>
		</body></html>`, "https://okkyno.com/blogs/learn/how-to-prune-tomatoes")

	a, ok := x.Article(doc)
	require.True(t, ok)
	assert.Equal(t, "How to Prune Tomatoes", a.Title)
	assert.Equal(t, "how-to-prune-tomatoes", a.Slug)
	assert.Contains(t, a.Content, "Remove suckers weekly.")
	assert.NotContains(t, a.Content, "track()")
	assert.NotContains(t, a.Content, "<form")
	assert.Equal(t, "Pruning suckers for bigger fruit.", a.Excerpt)
	assert.Equal(t, "https://okkyno.com/img/prune.jpg", a.ImageURL)
	assert.Equal(t, "Vegetables", a.Category)
	assert.Equal(t, int64(7), a.AuthorID)
	assert.True(t, a.Published)
	assert.NoError(t, a.Validate())

	// the parsed document keeps its scripts
	assert.Len(t, doc.Select("script"), 1)
}

func TestArticleSparsePageFallsBack(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><body><h1>Winter Garden Checklist</h1></body></html>`,
		"https://okkyno.com/blog/winter-garden-checklist")

	a, ok := x.Article(doc)
	require.True(t, ok)
	assert.Equal(t, "Winter Garden Checklist", a.Title)
	assert.NotEmpty(t, a.Content)
	assert.Contains(t, a.Content, "Winter Garden Checklist")
	assert.NotEmpty(t, a.Excerpt)
	assert.LessOrEqual(t, utf8.RuneCountInString(a.Excerpt), MaxExcerpt)
	assert.Equal(t, catalog.PlaceholderArticleImage, a.ImageURL)
	assert.Equal(t, DefaultArticleCategory, a.Category)
	assert.NoError(t, a.Validate())
}

func TestArticleLongContentExcerpt(t *testing.T) {
	x := newTestExtractor()
	body := "<html><body><h1>Soil Building Basics</h1><main><p>" +
		strings.Repeat("Compost feeds the soil food web. ", 30) +
		"</p></main></body></html>"
	a, ok := x.Article(mustParse(t, body, "https://okkyno.com/guide/soil"))
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(a.Excerpt, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(a.Excerpt), MaxExcerpt)
}

func TestArticleShortTitleFallsThroughChain(t *testing.T) {
	x := newTestExtractor()
	doc := mustParse(t, `<html><head><meta property="og:title" content="Blog"></head>
		<body><h1>Companion Planting Basics</h1><article><p>Plant basil near tomatoes.</p></article></body></html>`,
		"https://okkyno.com/blog/companion-planting-basics")

	a, ok := x.Article(doc)
	require.True(t, ok)
	assert.Equal(t, "Companion Planting Basics", a.Title)
	assert.Equal(t, "companion-planting-basics", a.Slug)
}

func TestArticleRejectsShortTitle(t *testing.T) {
	x := newTestExtractor()
	_, ok := x.Article(mustParse(t, `<html><body><h1>Tips</h1></body></html>`, "https://okkyno.com/blog/tips"))
	assert.False(t, ok)
}
