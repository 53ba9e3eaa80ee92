// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// now is the clock used for header parsing. Tests override it.
var now = time.Now

// RateLimitHint is the wait and quota information found in response headers.
type RateLimitHint struct {
	IsLimited bool

	// RetryAfter is the server-requested wait, zero when absent.
	RetryAfter time.Duration

	// Remaining is the quota left in the current window; valid when HasRemaining.
	Remaining    int
	HasRemaining bool

	// ResetAt is when the quota window resets, zero when absent.
	ResetAt time.Time
}

// ParseRateLimitHeaders reads Retry-After, X-RateLimit-Remaining, and
// X-RateLimit-Reset. A numeric Retry-After is seconds; an HTTP date becomes a
// wait relative to at. A reset in the past yields no wait.
func ParseRateLimitHeaders(h http.Header, at time.Time) RateLimitHint {
	var hint RateLimitHint
	if h == nil {
		return hint
	}

	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if d, ok := parseWait(v, at); ok {
			hint.RetryAfter = d
			hint.IsLimited = true
		}
	}

	if v := strings.TrimSpace(h.Get("X-RateLimit-Remaining")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hint.Remaining = n
			hint.HasRemaining = true
			if n <= 0 {
				hint.IsLimited = true
			}
		}
	}

	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if t, ok := parseInstant(v); ok {
			hint.ResetAt = t
			hint.IsLimited = true
		}
	}

	return hint
}

// WaitFor returns the wait the hint asks for: RetryAfter when present,
// otherwise the time until ResetAt. Zero means no explicit wait.
func (h RateLimitHint) WaitFor(at time.Time) time.Duration {
	if h.RetryAfter > 0 {
		return h.RetryAfter
	}
	if !h.ResetAt.IsZero() {
		if d := h.ResetAt.Sub(at); d > 0 {
			return d
		}
	}
	return 0
}

func parseWait(v string, at time.Time) (time.Duration, bool) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := t.Sub(at)
	if d < 0 {
		d = 0
	}
	return d, true
}

// parseInstant accepts unix seconds or an HTTP date.
func parseInstant(v string) (time.Time, bool) {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	if t, err := http.ParseTime(v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
