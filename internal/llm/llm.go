// Package llm wraps the text-generation service behind a single call:
// prompt in, free text out.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewLimiter returns a limiter that spaces calls by delay. A zero delay disables spacing.
func NewLimiter(delay time.Duration, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(delay), burst)
}

type throttled struct {
	next    Generator
	limiter *rate.Limiter
}

// Throttled waits on limiter before every call to g.
func Throttled(g Generator, limiter *rate.Limiter) Generator {
	if limiter == nil {
		return g
	}
	return &throttled{next: g, limiter: limiter}
}

func (t *throttled) Generate(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.Generate(ctx, prompt)
}

type retrying struct {
	next     Generator
	attempts int
	backoff  time.Duration
	log      zerolog.Logger
}

// WithRetry retries failed calls up to attempts times, doubling backoff each time.
// Context cancellation is never retried.
func WithRetry(g Generator, attempts int, backoff time.Duration, log zerolog.Logger) Generator {
	if attempts <= 1 {
		return g
	}
	return &retrying{next: g, attempts: attempts, backoff: backoff, log: log}
}

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	wait := r.backoff
	var err error
	for i := 1; i <= r.attempts; i++ {
		var out string
		out, err = r.next.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || i == r.attempts {
			break
		}
		r.log.Warn().Err(err).Int("attempt", i).Dur("backoff", wait).Msg("generation failed, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		wait *= 2
	}
	return "", err
}
