package synth

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehmanul/okkyno.com-sub000/internal/extract"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
)

func newGenerator(seed int64) *Generator {
	s := extract.NewSynthesizer(seed).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	})
	return New(s, 3)
}

func TestCategoriesAreValidAndUnique(t *testing.T) {
	cats := newGenerator(1).Categories()
	require.NotEmpty(t, cats)

	seen := map[string]bool{}
	for _, c := range cats {
		assert.NoError(t, c.Validate(), c.Name)
		assert.Equal(t, slug.Make(c.Name), c.Slug)
		assert.False(t, seen[c.Slug], "duplicate slug %s", c.Slug)
		seen[c.Slug] = true
	}
}

func TestProductsFollowCatalogRules(t *testing.T) {
	g := newGenerator(7)
	categories := map[string]bool{}
	for _, c := range g.Categories() {
		categories[c.Name] = true
	}

	products := g.Products(60)
	require.Len(t, products, 60)

	seen := map[string]bool{}
	for _, p := range products {
		assert.False(t, seen[p.Slug], "duplicate slug %s", p.Slug)
		seen[p.Slug] = true

		assert.True(t, categories[p.CategoryHint], p.CategoryHint)
		assert.False(t, p.Price.LessThan(extract.MinFallbackPrice))
		assert.False(t, p.Price.GreaterThan(extract.MaxFallbackPrice))
		require.NotNil(t, p.ComparePrice)
		assert.True(t, p.ComparePrice.GreaterThan(p.Price))
		assert.LessOrEqual(t, utf8.RuneCountInString(p.ShortDescription), extract.MaxShortDescription)

		p.CategoryID = 1
		assert.NoError(t, p.Validate(), p.Name)
	}
}

func TestProductsBeyondPoolStayUnique(t *testing.T) {
	g := newGenerator(3)
	n := 0
	for _, c := range categorySeeds {
		n += len(c.items) * len(productVariants)
	}

	products := g.Products(n + 5)
	seen := map[string]bool{}
	for _, p := range products {
		assert.False(t, seen[p.Slug], "duplicate slug %s", p.Slug)
		seen[p.Slug] = true
	}
}

func TestArticlesFollowCatalogRules(t *testing.T) {
	posts := newGenerator(11).Articles(20)
	require.Len(t, posts, 20)

	seen := map[string]bool{}
	for _, b := range posts {
		assert.False(t, seen[b.Slug], "duplicate slug %s", b.Slug)
		seen[b.Slug] = true
		assert.Equal(t, int64(3), b.AuthorID)
		assert.True(t, b.Published)
		assert.NotEmpty(t, b.Content)
		assert.LessOrEqual(t, utf8.RuneCountInString(b.Excerpt), extract.MaxExcerpt)
		assert.NoError(t, b.Validate(), b.Title)
	}
}

func TestSameSeedSameCatalog(t *testing.T) {
	a := newGenerator(42)
	b := newGenerator(42)

	pa, pb := a.Products(10), b.Products(10)
	for i := range pa {
		assert.Equal(t, pa[i].Slug, pb[i].Slug)
		assert.True(t, pa[i].Price.Equal(pb[i].Price))
		assert.Equal(t, pa[i].SKU, pb[i].SKU)
	}

	aa, ab := a.Articles(5), b.Articles(5)
	for i := range aa {
		assert.Equal(t, aa[i].Title, ab[i].Title)
	}
}
