package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	siteSuffixSeps = []string{" | ", " – ", " — ", " :: "}
	titlePrefixes  = []string{"collection:", "category:", "product category:", "archives:"}

	tagStopWords = map[string]bool{
		"and": true, "the": true, "for": true, "with": true, "from": true,
		"your": true, "our": true, "pack": true, "set": true, "of": true,
	}

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// StripSiteSuffix removes trailing " | Site" style suffixes and common
// archive prefixes from page titles.
func StripSiteSuffix(title string) string {
	t := strings.TrimSpace(title)
	for _, sep := range siteSuffixSeps {
		if idx := strings.Index(t, sep); idx > 0 {
			t = strings.TrimSpace(t[:idx])
		}
	}
	lower := strings.ToLower(t)
	for _, p := range titlePrefixes {
		if strings.HasPrefix(lower, p) {
			t = strings.TrimSpace(t[len(p):])
			break
		}
	}
	return t
}

// Truncate shortens s to at most max runes, cutting on a word boundary and
// appending "..." when anything was removed.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}

	cut := string(runes[:max-3])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	cut = strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return cut + "..."
}

// TextFromHTML returns the visible text of an HTML fragment.
func TextFromHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Tags derives lowercase keyword tokens from a name.
func Tags(name string) []string {
	seen := make(map[string]bool)
	var tags []string
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len([]rune(w)) < 3 || tagStopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
		if len(tags) == 8 {
			break
		}
	}
	return tags
}
