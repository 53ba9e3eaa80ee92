// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps upstream calls with classified retries and
// exponential backoff. Every call to the text and image services goes
// through a Governor.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/pkg/types"
)

// jitterFraction is the largest random addition to a computed delay.
const jitterFraction = 0.1

// Policy controls how often and how patiently a call is retried. A Policy is
// a value; overriding it for one call never affects other callers.
type Policy struct {
	MaxAttempts          int
	BaseDelay            time.Duration
	MaxDelay             time.Duration
	MaxHintDelay         time.Duration
	BackoffBase          float64
	RetryableStatusCodes map[int]bool
}

// DefaultPolicy returns 3 attempts, 1s base, 30s cap, doubling, and the
// usual transient status codes.
func DefaultPolicy() Policy {
	return PolicyFromConfig(types.PipelineConfig{}.WithDefaults().Retry)
}

// PolicyFromConfig converts the configuration form into a Policy.
func PolicyFromConfig(cfg types.RetryConfig) Policy {
	codes := make(map[int]bool, len(cfg.RetryableStatusCodes))
	for _, c := range cfg.RetryableStatusCodes {
		codes[c] = true
	}
	return Policy{
		MaxAttempts:          cfg.MaxAttempts,
		BaseDelay:            cfg.BaseDelay,
		MaxDelay:             cfg.MaxDelay,
		MaxHintDelay:         cfg.MaxHintDelay,
		BackoffBase:          cfg.BackoffBase,
		RetryableStatusCodes: codes,
	}
}

// Retryable reports whether a classified error deserves another attempt.
func (p Policy) Retryable(err error) bool {
	var (
		rl *RateLimited
		se *ServerError
		ce *ClientError
		ne *NetworkError
	)
	switch {
	case errors.As(err, &ne):
		return true
	case errors.As(err, &rl):
		return p.RetryableStatusCodes[rl.StatusCode()]
	case errors.As(err, &se):
		return p.RetryableStatusCodes[se.Status]
	case errors.As(err, &ce):
		return p.RetryableStatusCodes[ce.Status]
	}
	return false
}

// Delay returns the wait before retry number attempt (0-based). A server
// hint wins and is used as is, up to MaxHintDelay when that is set.
// Otherwise the delay is BaseDelay*BackoffBase^attempt capped at MaxDelay,
// plus jitter*10% of that, with the total still capped at MaxDelay. jitter
// must be in [0, 1).
func (p Policy) Delay(attempt int, err error, jitter float64) time.Duration {
	var rl *RateLimited
	if errors.As(err, &rl) {
		if d := rl.Hint.WaitFor(now()); d > 0 {
			if p.MaxHintDelay > 0 && d > p.MaxHintDelay {
				d = p.MaxHintDelay
			}
			return d
		}
	}

	base := p.BackoffBase
	if base < 1 {
		base = 1
	}
	d := float64(p.BaseDelay) * math.Pow(base, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	d += d * jitterFraction * jitter
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// Governor executes operations under a Policy.
type Governor struct {
	policy Policy
	log    *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// New returns a Governor using p. A nil logger discards output.
func New(p Policy, log *slog.Logger) *Governor {
	return &Governor{
		policy: p,
		log:    logging.OrNop(log),
		sleep:  sleepCtx,
		jitter: rand.Float64,
	}
}

// Policy returns the governor's default policy.
func (g *Governor) Policy() Policy { return g.policy }

// Execute runs op under the governor's policy.
func Execute[T any](ctx context.Context, g *Governor, op func(context.Context) (T, error)) (T, error) {
	return ExecuteWith(ctx, g, g.policy, op)
}

// ExecuteWith runs op under p instead of the governor's policy.
//
// Non-retryable errors return after one attempt. Retryable errors are
// retried until p.MaxAttempts attempts have been made; the last error is
// then returned wrapped. Cancelling ctx stops the loop with ctx.Err().
func ExecuteWith[T any](ctx context.Context, g *Governor, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				g.log.Info("upstream call succeeded after retry", "attempts", attempt+1)
			}
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		err = Classify(err)
		lastErr = err
		if !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt, err, g.jitter())
		g.log.Warn("retrying upstream call",
			"attempt", attempt+1, "max_attempts", attempts, "delay", delay, "error", err)
		if err := g.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
