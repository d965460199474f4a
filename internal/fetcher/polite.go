package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// attemptFunc performs exactly one fetch attempt.
type attemptFunc func(ctx context.Context, rawURL string) (*types.Page, error)

// Politeness applies the per-run fetch policy shared by every fetcher:
// a visited set, linear retry back-off and a post-success delay.
type Politeness struct {
	maxRetries    int
	retryDelay    time.Duration
	delay         time.Duration
	maxRetryAfter time.Duration

	visited *Visited
	metrics *observability.Metrics
	logger  *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoliteness builds the policy from fetcher config.
func NewPoliteness(cfg *config.FetcherConfig, logger *slog.Logger, metrics *observability.Metrics) *Politeness {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Politeness{
		maxRetries:    maxRetries,
		retryDelay:    cfg.RetryDelay,
		delay:         cfg.Delay,
		maxRetryAfter: cfg.MaxRetryAfter,
		visited:       NewVisited(),
		metrics:       metrics,
		logger:        logger,
		sleep:         sleepContext,
	}
}

// Reset clears the visited set so the next run starts fresh.
func (p *Politeness) Reset() {
	if n := p.visited.Count(); n > 0 {
		p.logger.Debug("clearing visited set", "urls", n)
	}
	p.visited.Reset()
}

// do runs attempt under the policy. Repeat URLs short-circuit with
// types.ErrAlreadyVisited. Exhausted retries return a *types.FetchError
// wrapping types.ErrMaxRetries.
func (p *Politeness) do(ctx context.Context, rawURL string, attempt attemptFunc) (*types.Page, error) {
	if !p.visited.Visit(rawURL) {
		p.metrics.RecordSkip()
		return nil, types.ErrAlreadyVisited
	}

	var lastErr error
	tries := 0
	for n := 1; n <= p.maxRetries; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tries = n
		page, err := attempt(ctx, rawURL)
		if err == nil {
			page.Attempts = n
			if err := p.sleep(ctx, p.delay); err != nil {
				return nil, err
			}
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var fe *types.FetchError
		if errors.As(err, &fe) && !fe.IsRetryable() {
			break
		}
		if n == p.maxRetries {
			break
		}

		wait := p.retryDelay * time.Duration(n)
		if fe != nil && fe.RetryAfter > wait {
			wait = fe.RetryAfter
			if p.maxRetryAfter > 0 && wait > p.maxRetryAfter {
				wait = p.maxRetryAfter
			}
		}

		p.metrics.RecordRetry()
		p.logger.Warn("retrying fetch",
			"url", rawURL,
			"attempt", n,
			"max_retries", p.maxRetries,
			"wait", wait,
			"error", err,
		)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	p.metrics.RecordFailure()
	fe := &types.FetchError{URL: rawURL, Err: lastErr, Attempts: tries}
	var last *types.FetchError
	if errors.As(lastErr, &last) {
		fe.StatusCode = last.StatusCode
		fe.Err = last.Err
	}
	if tries == p.maxRetries {
		fe.Err = fmt.Errorf("%w: %w", types.ErrMaxRetries, fe.Err)
	}
	return nil, fe
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
