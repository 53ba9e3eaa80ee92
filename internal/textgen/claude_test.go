// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/retry"
)

func withClaudeServer(t *testing.T, h http.HandlerFunc) *ClaudeBackend {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() { claudeAPIURL = old })

	return &ClaudeBackend{APIKey: "test-key", UserAgent: "content-engine/test", Client: ts.Client()}
}

func TestClaudeComplete(t *testing.T) {
	var got claudeRequest
	b := withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "content-engine/test", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"world"}]}`)
	})

	text, err := b.Complete(context.Background(), "Say hello", "claude-test")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, "claude-test", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Say hello", got.Messages[0].Content)
}

func TestClaudeStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *retry.RateLimited
			require.ErrorAs(t, err, &rl)
			assert.Equal(t, 7*time.Second, rl.Hint.RetryAfter)
		}},
		{"overloaded", 529, func(t *testing.T, err error) {
			var se *retry.ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 529, se.Status)
		}},
		{"bad request", http.StatusBadRequest, func(t *testing.T, err error) {
			assert.True(t, retry.IsPermanent(err))
			assert.Contains(t, err.Error(), "invalid model")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := withClaudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `invalid model`)
			})
			_, err := b.Complete(context.Background(), "p", "m")
			tt.check(t, err)
		})
	}
}

func TestClaudeEmptyContent(t *testing.T) {
	b := withClaudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	})
	_, err := b.Complete(context.Background(), "p", "m")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
