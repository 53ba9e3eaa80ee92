// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package throttle spaces out calls to the same upstream service.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Key groups calls that share a spacing floor, usually one per service.
type Key string

const (
	KeyText   Key = "text"
	KeyImages Key = "images"
)

// Gate records when each key was last let through and delays the next call
// until the key's minimum interval has elapsed. It is safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	interval map[Key]time.Duration
	last     map[Key]time.Time

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate returns a gate with the given per-key intervals. Keys without an
// interval pass through immediately.
func NewGate(intervals map[Key]time.Duration) *Gate {
	m := make(map[Key]time.Duration, len(intervals))
	for k, v := range intervals {
		m[k] = v
	}
	return &Gate{
		interval: m,
		last:     make(map[Key]time.Time),
		clock:    time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until a call under key may proceed, then records it. It
// returns ctx.Err() if ctx ends first.
func (g *Gate) Wait(ctx context.Context, key Key) error {
	if g == nil {
		return ctx.Err()
	}
	for {
		g.mu.Lock()
		now := g.clock()
		floor := g.interval[key]
		last, seen := g.last[key]
		var wait time.Duration
		if seen && floor > 0 {
			wait = floor - now.Sub(last)
		}
		if wait <= 0 {
			g.last[key] = now
			g.mu.Unlock()
			return nil
		}
		g.mu.Unlock()

		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
