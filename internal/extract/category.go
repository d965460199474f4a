package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
)

var (
	categoryNameChain = []parser.Selector{
		parser.CSS("h1.page-title"),
		parser.CSS("h1.collection-title"),
		parser.CSS(".collection-hero__title"),
		parser.CSS("h1.archive-title"),
		parser.CSS("h1"),
		parser.Meta("og:title"),
		parser.CSS("title"),
	}

	categoryDescriptionChain = []parser.Selector{
		parser.CSS(".collection-description"),
		parser.CSS(".category-description"),
		parser.CSS(".term-description"),
		parser.CSS(".collection-hero__description"),
		parser.CSS(".archive-description"),
		parser.Meta("og:description"),
		parser.Meta("description"),
	}

	categoryImageChain = []parser.Selector{
		parser.Meta("og:image"),
		parser.CSSAttr(".collection-hero img", "src"),
		parser.CSSAttr(".category-banner img", "src"),
		parser.CSSAttr(".collection-image img", "src"),
	}
)

// DefaultCategoryDescription is used when a category page has no copy.
func DefaultCategoryDescription(name string) string {
	return fmt.Sprintf("Explore our collection of %s products for your garden.", name)
}

// Category extracts a category from a collection or category page.
func (x *Extractor) Category(doc *parser.Document) (*catalog.NewCategory, bool) {
	name := StripSiteSuffix(doc.First(categoryNameChain...))
	if utf8.RuneCountInString(name) < 2 {
		return nil, false
	}
	s := slug.Make(name)
	if s == "" {
		return nil, false
	}

	description := doc.First(categoryDescriptionChain...)
	if description == "" {
		description = DefaultCategoryDescription(name)
	}

	return &catalog.NewCategory{
		Name:        name,
		Slug:        s,
		Description: description,
		ImageURL:    imageOr(doc.Resolve(doc.First(categoryImageChain...)), catalog.PlaceholderCategoryImage),
		SourceURL:   doc.URL(),
	}, true
}
