package importer

import (
	"time"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
)

// Status is the terminal state of one imported entity.
type Status string

const (
	StatusCreated   Status = "created"
	StatusDuplicate Status = "skipped_duplicate"
	StatusInvalid   Status = "skipped_invalid"
	StatusFailed    Status = "failed"
)

// Result records what happened to one discovered URL or synthetic record.
type Result struct {
	Kind   catalog.Kind `json:"kind"`
	URL    string       `json:"url,omitempty"`
	Slug   string       `json:"slug,omitempty"`
	ID     int64        `json:"id,omitempty"`
	Status Status       `json:"status"`
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}

func (r Result) withErr(status Status, err error) Result {
	r.Status = status
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Counts tallies results for one entity kind.
type Counts struct {
	Discovered int `json:"discovered"`
	Attempted  int `json:"attempted"`
	Created    int `json:"created"`
	Duplicate  int `json:"skipped_duplicate"`
	Invalid    int `json:"skipped_invalid"`
	Failed     int `json:"failed"`
}

// Summary is the outcome of one import run.
type Summary struct {
	Source          string    `json:"source"`
	BaseURL         string    `json:"base_url,omitempty"`
	Categories      Counts    `json:"categories"`
	Products        Counts    `json:"products"`
	Articles        Counts    `json:"articles"`
	Featured        []int64   `json:"featured_product_ids,omitempty"`
	HostUnreachable bool      `json:"host_unreachable"`
	Results         []Result  `json:"results"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

const (
	SourceScrape    = "scrape"
	SourceSynthetic = "synthetic"
)

func newSummary(source, baseURL string) *Summary {
	return &Summary{
		Source:    source,
		BaseURL:   baseURL,
		StartedAt: time.Now().UTC(),
	}
}

// For returns the counters for kind.
func (s *Summary) For(kind catalog.Kind) *Counts {
	switch kind {
	case catalog.KindCategory:
		return &s.Categories
	case catalog.KindProduct:
		return &s.Products
	default:
		return &s.Articles
	}
}

func (s *Summary) add(r Result) {
	c := s.For(r.Kind)
	c.Attempted++
	switch r.Status {
	case StatusCreated:
		c.Created++
	case StatusDuplicate:
		c.Duplicate++
	case StatusInvalid:
		c.Invalid++
	case StatusFailed:
		c.Failed++
	}
	s.Results = append(s.Results, r)
}

// Created returns the total number of records created.
func (s *Summary) Created() int {
	return s.Categories.Created + s.Products.Created + s.Articles.Created
}

// Failures returns the results that ended in StatusFailed.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}

// Duration returns how long the run took.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) finish() {
	s.FinishedAt = time.Now().UTC()
}
