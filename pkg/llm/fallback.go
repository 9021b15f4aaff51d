package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Chain is a priority-ordered list of generators evaluated at call time:
// the first healthy provider that returns a result wins. This is
// capability substitution, not inheritance - every entry implements the
// same Generator interface and the stages never know which one answered.
//
// Each provider is guarded by its own circuit breaker so a dead provider
// is skipped without spending a timeout. A shared semaphore bounds
// in-flight calls across all pipeline runs, applying backpressure
// instead of unbounded concurrent dispatch to the providers.
type Chain struct {
	providers []chainEntry
	sem       *semaphore.Weighted
	logger    *zap.Logger
}

type chainEntry struct {
	gen     Generator
	breaker *CircuitBreaker
}

// NewChain creates a fallback chain over the given providers, in
// priority order. maxConcurrent bounds in-flight calls; values < 1
// disable the bound.
func NewChain(providers []Generator, maxConcurrent int64, logger *zap.Logger) *Chain {
	entries := make([]chainEntry, len(providers))
	for i, g := range providers {
		entries[i] = chainEntry{
			gen:     g,
			breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		}
	}

	var sem *semaphore.Weighted
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(maxConcurrent)
	}

	return &Chain{
		providers: entries,
		sem:       sem,
		logger:    logger.Named("llm-chain"),
	}
}

// GenerateResponse tries each provider in priority order until one
// succeeds. Providers with an open circuit are skipped. The last
// classified error is returned when every provider fails.
func (c *Chain) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResult, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, ClassifyError(c.Name(), err)
		}
		defer c.sem.Release(1)
	}

	var lastErr *Error
	for _, entry := range c.providers {
		if !entry.breaker.Allow() {
			c.logger.Warn("provider skipped, circuit open",
				zap.String("provider", entry.gen.Name()))
			continue
		}

		result, err := entry.gen.GenerateResponse(ctx, prompt, systemMessage, temperature)
		if err == nil {
			entry.breaker.RecordSuccess()
			return result, nil
		}

		entry.breaker.RecordFailure()
		lastErr = ClassifyError(entry.gen.Name(), err)

		// The caller's context is gone; trying another provider would
		// fail the same way.
		if ctx.Err() != nil {
			return nil, lastErr
		}

		c.logger.Warn("provider failed, trying next",
			zap.String("provider", entry.gen.Name()),
			zap.String("error_type", string(lastErr.Type)),
			zap.Error(err))
	}

	if lastErr == nil {
		return nil, &Error{
			Type:     ErrorTypeUnavailable,
			Provider: c.Name(),
			Message:  "no providers available",
		}
	}
	return nil, lastErr
}

// Name returns the chain's composite provider name.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, entry := range c.providers {
		names[i] = entry.gen.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}
