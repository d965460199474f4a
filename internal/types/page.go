package types

import (
	"net/http"
	"time"
)

// Page is a fetched document ready for parsing.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers are the response HTTP headers.
	Headers http.Header

	// Body is the raw (decoded) response body.
	Body []byte

	// ContentType is the MIME type of the response.
	ContentType string

	// Attempts is how many tries the fetch took.
	Attempts int

	// FetchDuration is how long the successful attempt took.
	FetchDuration time.Duration

	// FetchedAt is when this page was received.
	FetchedAt time.Time
}

// NewPage creates a Page from an http.Response and its already-read body.
func NewPage(rawURL string, httpResp *http.Response, body []byte, duration time.Duration) *Page {
	final := rawURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		final = httpResp.Request.URL.String()
	}
	return &Page{
		URL:           rawURL,
		FinalURL:      final,
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		ContentType:   httpResp.Header.Get("Content-Type"),
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewBrowserPage creates a Page from headless browser output.
func NewBrowserPage(rawURL, finalURL string, body []byte, duration time.Duration) *Page {
	return &Page{
		URL:           rawURL,
		FinalURL:      finalURL,
		StatusCode:    http.StatusOK,
		Headers:       make(http.Header),
		Body:          body,
		ContentType:   "text/html",
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// BaseURL returns the URL relative links should be resolved against.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// IsSuccess returns true if the response status is 2xx.
func (p *Page) IsSuccess() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}
