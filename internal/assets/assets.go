// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets turns free-text image queries into vetted image references.
// Queries are nudged toward generic stock photography, and every candidate
// passes a structural check and a content check before it is used.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/imagesearch"
	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrNotFound reports that no candidate survived filtering.
var ErrNotFound = errors.New("no suitable image found")

// queryTerms are interface and branding words rewritten out of queries.
var queryTerms = regexp.MustCompile(`\b(?:screenshots?|apps?|application|interfaces?|logos?|dashboards?|browsers?|websites?|software|ui|ux|mockups?|screens?)\b`)

// synonyms replace a rewritten query term.
var synonyms = []string{"workspace", "office", "technology", "business", "teamwork"}

// qualifiers bias a query toward stock photography.
var qualifiers = []string{"professional", "modern", "high quality", "minimal", "bright"}

// altBlacklist rejects candidates whose alt text suggests a screenshot,
// product UI, or brand mark.
var altBlacklist = regexp.MustCompile(`(?i)\b(?:screenshots?|interfaces?|logos?|dashboards?|apps?|application|browsers?|websites?|web ?pages?|ui|mockups?|software|icons?|brand(?:ing)?|trademark)\b`)

// Resolver finds cover and inline images.
type Resolver struct {
	searcher        imagesearch.Searcher
	gov             *retry.Governor
	domain          string
	coverCandidates int
	pacing          time.Duration
	log             *slog.Logger

	pick  func(n int) int
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Resolver over s. Every search goes through gov.
func New(s imagesearch.Searcher, gov *retry.Governor, cfg types.ImageConfig, log *slog.Logger) *Resolver {
	return &Resolver{
		searcher:        s,
		gov:             gov,
		domain:          strings.ToLower(cfg.ApprovedDomain),
		coverCandidates: cfg.CoverCandidates,
		pacing:          cfg.PacingDelay,
		log:             logging.OrNop(log),
		pick:            rand.IntN,
		sleep:           sleepCtx,
	}
}

// SanitizeQuery lowercases q, swaps interface and branding words for a
// generic synonym, and prepends a random quality qualifier.
func (r *Resolver) SanitizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = queryTerms.ReplaceAllStringFunc(q, func(string) string {
		return synonyms[r.pick(len(synonyms))]
	})
	q = strings.Join(strings.Fields(q), " ")
	return qualifiers[r.pick(len(qualifiers))] + " " + q
}

// FindCover returns the first candidate for query that passes both filters.
func (r *Resolver) FindCover(ctx context.Context, query string) (types.ImageRef, error) {
	q := r.SanitizeQuery(query)
	count := r.coverCandidates
	if count < 2 {
		count = 2
	}

	cands, err := retry.Execute(ctx, r.gov, func(ctx context.Context) ([]imagesearch.Candidate, error) {
		return r.searcher.Search(ctx, q, count)
	})
	if err != nil {
		return types.ImageRef{}, fmt.Errorf("searching cover image for %q: %w", query, err)
	}

	refs := r.vet(cands, 1, nil)
	if len(refs) == 0 {
		return types.ImageRef{}, fmt.Errorf("%w: cover for %q (%d candidates rejected)", ErrNotFound, query, len(cands))
	}
	r.log.Debug("cover image selected", "query", q, "url", refs[0].PreviewURL)
	return refs[0], nil
}

// FindInline collects up to perQuery vetted images per query, pausing
// between queries. Failed queries are logged and skipped; an empty result
// is not an error. Only cancellation of ctx is returned.
func (r *Resolver) FindInline(ctx context.Context, queries []string, perQuery int) ([]types.ImageRef, error) {
	if perQuery <= 0 {
		perQuery = 1
	}
	seen := make(map[string]bool)
	var refs []types.ImageRef

	for i, query := range queries {
		if i > 0 && r.pacing > 0 {
			if err := r.sleep(ctx, r.pacing); err != nil {
				return refs, err
			}
		}
		q := r.SanitizeQuery(query)
		cands, err := retry.Execute(ctx, r.gov, func(ctx context.Context) ([]imagesearch.Candidate, error) {
			return r.searcher.Search(ctx, q, perQuery+4)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return refs, ctxErr
			}
			r.log.Warn("inline image search failed", "query", query, "error", err)
			continue
		}
		got := r.vet(cands, perQuery, seen)
		if len(got) == 0 {
			r.log.Info("no inline image passed filtering", "query", query, "candidates", len(cands))
		}
		refs = append(refs, got...)
	}
	return refs, nil
}

// vet applies the structural and content filters in order and returns up to
// limit survivors not already in seen. seen may be nil.
func (r *Resolver) vet(cands []imagesearch.Candidate, limit int, seen map[string]bool) []types.ImageRef {
	var out []types.ImageRef
	for _, c := range cands {
		if len(out) >= limit {
			break
		}
		if err := CheckStructure(c, r.domain); err != nil {
			r.log.Debug("image candidate rejected", "id", c.ID, "reason", err)
			continue
		}
		if term, ok := BlacklistedTerm(c.AltText); ok {
			r.log.Debug("image candidate rejected", "id", c.ID, "reason", "alt text contains "+term)
			continue
		}
		if seen != nil {
			if seen[c.PreviewURL] {
				continue
			}
			seen[c.PreviewURL] = true
		}
		out = append(out, c.Ref())
	}
	return out
}

// CheckStructure reports why a candidate is structurally unusable: a missing
// credit name, or any URL that CheckURLs rejects.
func CheckStructure(c imagesearch.Candidate, domain string) error {
	if c.CreditName == "" {
		return errors.New("missing credit name")
	}
	return CheckURLs(c.Ref(), domain)
}

// CheckURLs verifies the preview, credit profile and source page URLs of ref.
// Each must be present, https, and inside domain.
func CheckURLs(ref types.ImageRef, domain string) error {
	fields := []struct{ name, raw string }{
		{"preview", ref.PreviewURL},
		{"credit profile", ref.CreditProfileURL},
		{"source page", ref.SourcePageURL},
	}
	for _, f := range fields {
		if err := CheckURL(f.raw, domain); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// CheckURL verifies one image URL against the approved domain.
func CheckURL(raw, domain string) error {
	if raw == "" {
		return errors.New("missing URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("bad URL %q: %w", raw, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("URL %q is not https", raw)
	}
	if !InDomain(u.Hostname(), domain) {
		return fmt.Errorf("URL %q is outside %s", raw, domain)
	}
	return nil
}

// InDomain reports whether host is domain or one of its subdomains.
func InDomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// BlacklistedTerm returns the first interface or branding term in alt.
func BlacklistedTerm(alt string) (string, bool) {
	m := altBlacklist.FindString(alt)
	return strings.ToLower(m), m != ""
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
