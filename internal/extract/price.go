package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceRe          = regexp.MustCompile(`\$?(\d+(\.\d{2})?)`)
	thousandsGroupRe = regexp.MustCompile(`(\d),(\d{3})`)
	amountEdgeRe     = regexp.MustCompile(`^[^\d.-]+|[^\d.]+$`)
)

// ParsePrice returns the first price-looking number in text. Thousands
// separators are tolerated. ok is false when nothing positive was found.
func ParsePrice(text string) (decimal.Decimal, bool) {
	normalized := thousandsGroupRe.ReplaceAllString(text, "$1$2")
	m := priceRe.FindStringSubmatch(normalized)
	if m == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ParseAmount parses a machine-readable amount such as a JSON-LD offer
// price or price meta content ("12.5", "USD 1,299.00"). Any number of
// decimal places is kept.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := amountEdgeRe.ReplaceAllString(strings.TrimSpace(text), "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ExtractPrice parses a price from free text, falling back to a random
// value in [9.99, 89.99] when the text holds none.
func (s *Synthesizer) ExtractPrice(text string) decimal.Decimal {
	if d, ok := ParsePrice(text); ok {
		return d
	}
	return s.Price()
}
