// Package extract maps parsed storefront pages onto catalog create inputs.
//
// Each extractor walks a priority-ordered chain of selectors and takes the
// first non-empty match, synthesizing optional fields it cannot find. A
// false second return means the page is not worth importing; it is never
// an error.
package extract

import (
	"github.com/shopspring/decimal"
)

// Extractor holds the shared synthesizer and article defaults.
type Extractor struct {
	synth           *Synthesizer
	defaultAuthorID int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDefaultAuthor sets the author id stamped on imported articles.
func WithDefaultAuthor(id int64) Option {
	return func(x *Extractor) { x.defaultAuthorID = id }
}

// New creates an Extractor backed by synth.
func New(synth *Synthesizer, opts ...Option) *Extractor {
	x := &Extractor{
		synth:           synth,
		defaultAuthorID: 1,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Synthesizer returns the extractor's synthesizer.
func (x *Extractor) Synthesizer() *Synthesizer { return x.synth }

// ExtractPrice parses a price from text or synthesizes one.
func (x *Extractor) ExtractPrice(text string) decimal.Decimal {
	return x.synth.ExtractPrice(text)
}

// imageOr returns abs when it is usable, else the placeholder.
func imageOr(abs, placeholder string) string {
	if !imageCandidate(abs) {
		return placeholder
	}
	return abs
}
