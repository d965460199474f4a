package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
)

// MaxImages bounds Product.ImageURLs.
const MaxImages = 5

var (
	skipImageMarkers = []string{"icon", "logo", "sprite", "placeholder", "spinner", "loading", "pixel", "badge", "avatar"}

	youtubeIDRe = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:embed/|watch\?(?:.*&)?v=|shorts/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	vimeoIDRe   = regexp.MustCompile(`vimeo\.com/(?:video/)?(\d+)`)
)

// imageCandidate reports whether an absolute image URL is worth keeping.
func imageCandidate(abs string) bool {
	if abs == "" || strings.HasPrefix(abs, "data:") {
		return false
	}
	u, err := url.Parse(abs)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".gif") {
		return false
	}
	for _, marker := range skipImageMarkers {
		if strings.Contains(path, marker) {
			return false
		}
	}
	return true
}

// firstSrcsetURL returns the first URL of a srcset value.
func firstSrcsetURL(srcset string) string {
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// collectImages gathers image URLs from structured data and every <img> on
// the page, resolved, filtered and deduplicated, at most limit.
func collectImages(doc *parser.Document, preferred []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(raw string) {
		if len(out) >= limit {
			return
		}
		if strings.HasPrefix(strings.TrimSpace(raw), "//") {
			raw = "https:" + strings.TrimSpace(raw)
		}
		abs := doc.Resolve(raw)
		if !imageCandidate(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	}

	for _, p := range preferred {
		add(p)
	}

	for _, img := range doc.Select("img") {
		if len(out) >= limit {
			break
		}
		switch {
		case img.Attr("data-src") != "":
			add(img.Attr("data-src"))
		case img.Attr("data-srcset") != "":
			add(firstSrcsetURL(img.Attr("data-srcset")))
		case img.Attr("src") != "":
			add(img.Attr("src"))
		case img.Attr("srcset") != "":
			add(firstSrcsetURL(img.Attr("srcset")))
		}
	}

	return out
}

// EmbedURL converts a YouTube or Vimeo link into its embeddable form.
// Other URLs return "".
func EmbedURL(raw string) string {
	if m := youtubeIDRe.FindStringSubmatch(raw); m != nil {
		return "https://www.youtube.com/embed/" + m[1]
	}
	if m := vimeoIDRe.FindStringSubmatch(raw); m != nil {
		return "https://player.vimeo.com/video/" + m[1]
	}
	return ""
}

// collectVideos finds YouTube and Vimeo embeds in iframes, video links and
// structured data.
func collectVideos(doc *parser.Document, extra []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(raw string) {
		embed := EmbedURL(raw)
		if embed == "" || seen[embed] {
			return
		}
		seen[embed] = true
		out = append(out, embed)
	}

	for _, sel := range []parser.Selector{
		parser.CSSAttr("iframe", "src"),
		parser.CSSAttr("iframe", "data-src"),
		parser.CSSAttr("a[href]", "href"),
		parser.CSSAttr("[data-video-url]", "data-video-url"),
	} {
		for _, v := range doc.All(sel) {
			add(v)
		}
	}
	for _, v := range extra {
		add(v)
	}
	return out
}
