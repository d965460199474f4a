package extract

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
)

// Bounds for synthesized product fields, shared by scraped and generated
// records.
var (
	MinFallbackPrice = decimal.RequireFromString("9.99")
	MaxFallbackPrice = decimal.RequireFromString("89.99")
	MinRating        = decimal.RequireFromString("3.5")
	MaxRating        = decimal.NewFromInt(5)
	CompareMarkup    = decimal.RequireFromString("1.3")
)

const skuAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Synthesizer invents the fields source pages rarely expose. It owns its
// random source and clock so a fixed seed gives repeatable output.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthesizer returns a Synthesizer seeded with seed. A zero seed uses
// the current time.
func NewSynthesizer(seed int64) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthesizer{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// WithClock replaces the clock used for SKUs.
func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

func (s *Synthesizer) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Intn returns a value in [0, n).
func (s *Synthesizer) Intn(n int) int { return s.intn(n) }

// Price returns a value in [9.99, 89.99] with cent precision.
func (s *Synthesizer) Price() decimal.Decimal {
	lo := MinFallbackPrice.Shift(2).IntPart()
	hi := MaxFallbackPrice.Shift(2).IntPart()
	cents := lo + int64(s.intn(int(hi-lo+1)))
	return decimal.New(cents, -2)
}

// ComparePrice returns price marked up for a "was" price.
func (s *Synthesizer) ComparePrice(price decimal.Decimal) *decimal.Decimal {
	cp := price.Mul(CompareMarkup).Round(2)
	return &cp
}

// Rating returns a value in [3.5, 5.0] with one decimal place.
func (s *Synthesizer) Rating() decimal.Decimal {
	return decimal.New(int64(35+s.intn(16)), -1)
}

// ReviewCount returns a plausible review count.
func (s *Synthesizer) ReviewCount() int {
	return 5 + s.intn(496)
}

// Stock returns a plausible on-hand quantity.
func (s *Synthesizer) Stock() int {
	return 10 + s.intn(91)
}

// Difficulty picks one of the three growing difficulty levels.
func (s *Synthesizer) Difficulty() string {
	levels := []string{catalog.DifficultyBeginner, catalog.DifficultyIntermediate, catalog.DifficultyAdvanced}
	return levels[s.intn(len(levels))]
}

// SKU returns a timestamp plus random suffix token. SKUs are never taken
// from source pages.
func (s *Synthesizer) SKU() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = skuAlphabet[s.intn(len(skuAlphabet))]
	}
	return fmt.Sprintf("OKK-%d-%s", s.now().UnixMilli(), suffix)
}
