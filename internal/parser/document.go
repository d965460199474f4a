// Package parser loads fetched pages into a queryable DOM and exposes CSS,
// XPath and structured-data extraction over it.
package parser

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// Document is a parsed HTML page bound to the URL it was fetched from.
type Document struct {
	url  string
	base *url.URL
	root *html.Node
	doc  *goquery.Document
}

// Parse loads an HTML body. baseURL is used to resolve relative links and
// must be absolute.
func Parse(body []byte, baseURL string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, &types.ParseError{URL: baseURL, Err: types.ErrInvalidURL}
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{URL: baseURL, Err: err}
	}

	return &Document{
		url:  baseURL,
		base: base,
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// ParsePage parses a fetched page against its final URL.
func ParsePage(page *types.Page) (*Document, error) {
	return Parse(page.Body, page.BaseURL())
}

// URL returns the page URL the document was parsed against.
func (d *Document) URL() string { return d.url }

// Host returns the lowercased host of the page URL.
func (d *Document) Host() string { return strings.ToLower(d.base.Hostname()) }

// Query exposes the underlying goquery document.
func (d *Document) Query() *goquery.Document { return d.doc }

// Select returns every element matching a CSS selector, in document order.
func (d *Document) Select(css string) []Element {
	var out []Element
	d.doc.Find(css).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, Element{node: sel.Get(0)})
	})
	return out
}

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	return cleanText(d.doc.Find("title").First().Text())
}

// Meta returns the content of the first <meta> whose property or name
// equals key, e.g. "og:title" or "description".
func (d *Document) Meta(key string) string {
	var val string
	d.doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		prop, _ := sel.Attr("property")
		name, _ := sel.Attr("name")
		itemprop, _ := sel.Attr("itemprop")
		if !strings.EqualFold(prop, key) && !strings.EqualFold(name, key) && !strings.EqualFold(itemprop, key) {
			return true
		}
		val = strings.TrimSpace(sel.AttrOr("content", ""))
		return val == ""
	})
	return val
}

// Resolve turns href into an absolute URL against the page URL. It returns
// "" for empty, unparsable or non-http(s) references.
func (d *Document) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := d.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// Links returns every <a href> on the page, resolved, fragment-free and
// deduplicated, in document order.
func (d *Document) Links() []string {
	seen := make(map[string]bool)
	var links []string

	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}
		abs := d.Resolve(href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})

	return links
}

// Element is a single node in a Document.
type Element struct {
	node *html.Node
}

// Text returns the element's text content with whitespace collapsed.
func (e Element) Text() string {
	if e.node == nil {
		return ""
	}
	return cleanText(goquery.NewDocumentFromNode(e.node).Text())
}

// Attr returns an attribute value, or "" when absent.
func (e Element) Attr(name string) string {
	if e.node == nil {
		return ""
	}
	for _, a := range e.node.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// HTML returns the element's inner HTML.
func (e Element) HTML() string {
	if e.node == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return strings.TrimSpace(buf.String())
}

// cleanText trims and collapses internal whitespace runs.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
