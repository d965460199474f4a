package extract

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
)

const (
	// MaxExcerpt bounds BlogPost.Excerpt.
	MaxExcerpt = 200
	// DefaultArticleCategory labels articles whose page names no section.
	DefaultArticleCategory = "Gardening Tips"
	// MinArticleTitle is the shortest title an article page may carry.
	MinArticleTitle = 5
)

var (
	articleTitleChain = []parser.Selector{
		parser.Meta("og:title"),
		parser.CSS("h1"),
		parser.CSS("title"),
	}

	// Ordered from most to least specific; article and main take the
	// whole container.
	articleContentChain = []string{
		".entry-content",
		".post-content",
		".article-content",
		".article-body",
		"[itemprop=articleBody]",
		"article",
		"main",
	}

	articleExcerptChain = []parser.Selector{
		parser.Meta("description"),
		parser.Meta("og:description"),
	}

	articleCategoryChain = []parser.Selector{
		parser.Meta("article:section"),
		parser.CSS(".cat-links a"),
		parser.CSS(".post-categories a"),
		parser.CSS(".article__category"),
	}

	strippedContent = "script, style, form, noscript, iframe[src*=doubleclick], .share, .sharedaddy, .newsletter, .related-posts"
)

// articleTitle walks the title chain and returns the first candidate that
// is long enough once the site suffix is stripped.
func articleTitle(doc *parser.Document) string {
	for _, sel := range articleTitleChain {
		for _, v := range doc.All(sel) {
			if t := StripSiteSuffix(v); utf8.RuneCountInString(t) >= MinArticleTitle {
				return t
			}
		}
	}
	return ""
}

// PlaceholderContent is the body used when a page yields no article text.
func PlaceholderContent(title string) string {
	t := html.EscapeString(title)
	return fmt.Sprintf("<p>%s. Practical advice for growing a healthier, more productive garden, "+
		"from soil preparation and planting to seasonal care and harvest.</p>", t)
}

// Article extracts a blog post from an article page. Sparse pages still
// produce a post with placeholder content as long as a title is found.
func (x *Extractor) Article(doc *parser.Document) (*catalog.NewBlogPost, bool) {
	title := articleTitle(doc)
	if title == "" {
		return nil, false
	}
	s := slug.Make(title)
	if s == "" {
		return nil, false
	}

	content, container := articleContent(doc)
	if content == "" {
		content = PlaceholderContent(title)
	}

	excerpt := doc.First(articleExcerptChain...)
	if excerpt == "" {
		excerpt = TextFromHTML(content)
	}
	excerpt = Truncate(excerpt, MaxExcerpt)
	if excerpt == "" {
		excerpt = Truncate(title, MaxExcerpt)
	}

	image := doc.Resolve(doc.Meta("og:image"))
	if !imageCandidate(image) && container != nil {
		image = ""
		container.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			if src == "" {
				src, _ = img.Attr("data-src")
			}
			if abs := doc.Resolve(src); imageCandidate(abs) {
				image = abs
				return false
			}
			return true
		})
	}

	category := doc.First(articleCategoryChain...)
	if category == "" {
		category = DefaultArticleCategory
	}

	return &catalog.NewBlogPost{
		Title:     title,
		Slug:      s,
		Content:   content,
		Excerpt:   excerpt,
		ImageURL:  imageOr(image, catalog.PlaceholderArticleImage),
		AuthorID:  x.defaultAuthorID,
		Published: true,
		Category:  category,
		Tags:      Tags(title),
		SourceURL: doc.URL(),
	}, true
}

// articleContent returns the cleaned inner HTML of the first content
// container with visible text, plus that container. The parsed document is
// left untouched.
func articleContent(doc *parser.Document) (string, *goquery.Selection) {
	for _, css := range articleContentChain {
		sel := doc.Query().Find(css).First()
		if sel.Length() == 0 {
			continue
		}
		clone := sel.Clone()
		clone.Find(strippedContent).Remove()
		if strings.TrimSpace(clone.Text()) == "" {
			continue
		}
		body, err := clone.Html()
		if err != nil {
			continue
		}
		return strings.TrimSpace(body), clone
	}
	return "", nil
}
