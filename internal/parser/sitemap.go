package parser

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// SitemapURL represents a URL entry from a sitemap.
type SitemapURL struct {
	Loc        string  `xml:"loc" json:"loc"`
	LastMod    string  `xml:"lastmod,omitempty" json:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty" json:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty" json:"priority,omitempty"`
}

// Sitemap is a parsed <urlset> or <sitemapindex> document.
type Sitemap struct {
	URLs     []SitemapURL `xml:"url" json:"urls"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap" json:"sitemaps"`
}

// Locs returns the trimmed <loc> values of page entries.
func (s *Sitemap) Locs() []string {
	out := make([]string, 0, len(s.URLs))
	for _, u := range s.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// Children returns the trimmed <loc> values of nested sitemaps.
func (s *Sitemap) Children() []string {
	out := make([]string, 0, len(s.Sitemaps))
	for _, sm := range s.Sitemaps {
		if loc := strings.TrimSpace(sm.Loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// ParseSitemap decodes a sitemap in XML mode. Both <urlset> and
// <sitemapindex> roots are accepted; the root element name is not checked.
func ParseSitemap(body []byte) (*Sitemap, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &types.ParseError{Err: types.ErrEmptyResponse}
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var sm Sitemap
	if err := dec.Decode(&sm); err != nil {
		return nil, &types.ParseError{Err: err}
	}
	return &sm, nil
}
