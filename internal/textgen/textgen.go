// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textgen talks to the generative text service. Backends speak one
// provider's API; Client adds request spacing, a per-call timeout, request
// counting, and error classification on top of any backend.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/internal/throttle"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrEmptyResponse reports a successful call that returned no text.
var ErrEmptyResponse = errors.New("empty response from text service")

// Backend completes a prompt against one provider. model is never empty.
type Backend interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// Completer is what the pipeline consumes. An empty model selects the
// configured default.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// Client decorates a Backend for use by the pipeline.
type Client struct {
	backend Backend
	gate    *throttle.Gate
	model   string
	timeout time.Duration
	log     *slog.Logger

	requests atomic.Int64
}

// NewClient wraps backend. gate may be nil; a zero timeout disables the
// per-call deadline.
func NewClient(backend Backend, gate *throttle.Gate, model string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		backend: backend,
		gate:    gate,
		model:   model,
		timeout: timeout,
		log:     logging.OrNop(log),
	}
}

// New builds the backend named by cfg.Provider and wraps it in a Client.
func New(cfg types.AIConfig, gate *throttle.Gate, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("text service API key missing for provider %q", cfg.Provider)
	}
	var backend Backend
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		backend = NewOpenAIBackend(cfg)
	case types.ProviderClaude:
		backend = &ClaudeBackend{APIKey: cfg.APIKey, UserAgent: cfg.UserAgent}
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.Provider)
	}
	return NewClient(backend, gate, cfg.Model, cfg.Timeout, log), nil
}

// Complete sends one prompt. Failures are classified into retry variants so
// a retry.Governor can decide what to do with them.
func (c *Client) Complete(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.model
	}
	if err := c.gate.Wait(ctx, throttle.KeyText); err != nil {
		return "", err
	}
	n := c.requests.Add(1)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.backend.Complete(callCtx, prompt, model)
	c.log.Debug("text request", "n", n, "model", model, "elapsed", time.Since(start), "error", err)
	if err != nil {
		return "", retry.Classify(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Requests returns the number of calls issued so far.
func (c *Client) Requests() int64 { return c.requests.Load() }
