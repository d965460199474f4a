package discovery

import (
	"net/url"
	"strings"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
)

// Path markers per bucket, checked in order. Products come before
// categories so /collections/x/products/y lands in the product bucket.
var classifyRules = []struct {
	kind    catalog.Kind
	markers []string
}{
	{catalog.KindArticle, []string{"/learn/", "/blog/", "/blogs/", "/guide/", "/guides/", "/article/", "/articles/"}},
	{catalog.KindProduct, []string{"/product/", "/products/", "/shop/"}},
	{catalog.KindCategory, []string{"/category/", "/product-category/", "/collection/", "/collections/"}},
}

// Classify buckets a URL by substring match on its path. Index pages such
// as /blog/ or /collections/ themselves are not classified.
func Classify(rawURL string) (catalog.Kind, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(u.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	for _, rule := range classifyRules {
		for _, marker := range rule.markers {
			idx := strings.Index(path, marker)
			if idx < 0 {
				continue
			}
			if rest := strings.Trim(path[idx+len(marker):], "/"); rest != "" {
				return rule.kind, true
			}
		}
	}
	return "", false
}

// sameSite compares hosts ignoring case and a leading "www.".
func sameSite(a, b string) bool {
	norm := func(h string) string {
		return strings.TrimPrefix(strings.ToLower(h), "www.")
	}
	return norm(a) == norm(b)
}
