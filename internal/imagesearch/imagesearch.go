// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imagesearch queries the stock photo service for image candidates.
// Candidates are unvetted; the assets package decides which ones are usable.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/internal/throttle"
	"github.com/pdiddy/content-engine/pkg/types"
)

// unsplashAPIBase is the photo search endpoint. Declared as a var so tests
// can substitute an httptest server.
var unsplashAPIBase = "https://api.unsplash.com/search/photos"

// maxPerPage is the largest page the search endpoint serves.
const maxPerPage = 30

// Candidate is one search hit with its attribution fields.
type Candidate struct {
	ID               string
	PreviewURL       string
	ThumbURL         string
	AltText          string
	CreditName       string
	CreditProfileURL string
	SourcePageURL    string
}

// Ref converts the candidate into an ImageRef.
func (c Candidate) Ref() types.ImageRef {
	return types.ImageRef{
		PreviewURL:       c.PreviewURL,
		AltText:          c.AltText,
		CreditName:       c.CreditName,
		CreditProfileURL: c.CreditProfileURL,
		SourcePageURL:    c.SourcePageURL,
	}
}

// Searcher returns up to count candidates for query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Candidate, error)
}

// UnsplashClient queries the Unsplash search API.
type UnsplashClient struct {
	Client    *http.Client
	AccessKey string
	UserAgent string
	Gate      *throttle.Gate
	Timeout   time.Duration
	Log       *slog.Logger

	requests atomic.Int64
}

// NewUnsplashClient builds a client from the image config.
func NewUnsplashClient(cfg types.ImageConfig, gate *throttle.Gate, log *slog.Logger) (*UnsplashClient, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("image service access key missing")
	}
	return &UnsplashClient{
		Client:    &http.Client{},
		AccessKey: cfg.AccessKey,
		UserAgent: cfg.UserAgent,
		Gate:      gate,
		Timeout:   cfg.Timeout,
		Log:       logging.OrNop(log),
	}, nil
}

// Search issues one search request. Non-200 responses come back as retry
// variants; transport errors are classified the same way.
func (c *UnsplashClient) Search(ctx context.Context, query string, count int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty image query")
	}
	if count <= 0 {
		count = 1
	}
	if count > maxPerPage {
		count = maxPerPage
	}

	if err := c.Gate.Wait(ctx, throttle.KeyImages); err != nil {
		return nil, err
	}
	n := c.requests.Add(1)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	params := url.Values{
		"query":          {query},
		"per_page":       {strconv.Itoa(count)},
		"orientation":    {"landscape"},
		"content_filter": {"high"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, unsplashAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.AccessKey)
	req.Header.Set("Accept-Version", "v1")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, retry.Classify(fmt.Errorf("Unsplash API request: %w", err))
	}
	defer resp.Body.Close()

	log := logging.OrNop(c.Log)
	if remaining := resp.Header.Get("X-Ratelimit-Remaining"); remaining != "" {
		log.Debug("image request", "n", n, "query", query, "status", resp.StatusCode, "remaining", remaining)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, retry.FromResponse(resp.StatusCode, resp.Header, strings.TrimSpace(string(body)))
	}

	var sr unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Unsplash response: %w", err)
	}

	results := make([]Candidate, 0, len(sr.Results))
	for _, p := range sr.Results {
		alt := p.AltDescription
		if alt == "" {
			alt = p.Description
		}
		results = append(results, Candidate{
			ID:               p.ID,
			PreviewURL:       p.URLs.Regular,
			ThumbURL:         p.URLs.Thumb,
			AltText:          alt,
			CreditName:       p.User.Name,
			CreditProfileURL: p.User.Links.HTML,
			SourcePageURL:    p.Links.HTML,
		})
	}
	return results, nil
}

// Requests returns the number of calls issued so far.
func (c *UnsplashClient) Requests() int64 { return c.requests.Load() }

// Unsplash API JSON structures.
type unsplashResponse struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	ID             string        `json:"id"`
	Description    string        `json:"description"`
	AltDescription string        `json:"alt_description"`
	URLs           unsplashURLs  `json:"urls"`
	Links          unsplashLinks `json:"links"`
	User           unsplashUser  `json:"user"`
}

type unsplashURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type unsplashLinks struct {
	HTML string `json:"html"`
}

type unsplashUser struct {
	Name  string        `json:"name"`
	Links unsplashLinks `json:"links"`
}
