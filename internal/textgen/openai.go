// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/pkg/types"
)

// OpenAIBackend calls the chat completions API through the official SDK.
// SDK-level retries are disabled; the retry governor owns that decision.
type OpenAIBackend struct {
	Opts []option.RequestOption
}

// NewOpenAIBackend builds a backend from the text service config.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithHeader("User-Agent", cfg.UserAgent))
	}
	return &OpenAIBackend{Opts: opts}
}

// Complete sends prompt as a single user message.
func (o *OpenAIBackend) Complete(ctx context.Context, prompt, model string) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// mapOpenAIError turns an SDK API error into the matching retry variant.
// Transport errors are returned wrapped for retry.Classify.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("calling OpenAI API: %w", err)
	}
	var header http.Header
	if apiErr.Response != nil {
		header = apiErr.Response.Header
	}
	if mapped := retry.FromResponse(apiErr.StatusCode, header, apiErr.Message); mapped != nil {
		return mapped
	}
	return fmt.Errorf("calling OpenAI API: %w", err)
}
