// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup decides whether a proposed article title repeats a topic
// that already exists.
package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	// DefaultThreshold is the shared-word fraction at which titles collide.
	DefaultThreshold = 0.8

	// DefaultMinWordLength excludes words of this many characters or fewer.
	DefaultMinWordLength = 2

	// DefaultMinSharedWords is the fewest shared words a fuzzy match needs.
	DefaultMinSharedWords = 2

	// DefaultMinCoverage is the shared fraction of the larger title's words
	// a fuzzy match also needs.
	DefaultMinCoverage = 0.5
)

// stopWords carry no topic and are ignored when comparing content words.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "your": true, "you": true, "are": true, "how": true,
	"why": true, "what": true, "that": true, "this": true, "its": true,
	"our": true, "about": true, "their": true,
}

// Filter compares titles using a fixed threshold and word-length rule.
// A fuzzy match also needs MinSharedWords shared words covering MinCoverage
// of the larger title, so a short title does not swallow every longer title
// that contains it.
type Filter struct {
	Threshold      float64
	MinWordLength  int
	MinSharedWords int
	MinCoverage    float64
}

// New returns a Filter from config, filling unset values with the defaults.
func New(cfg types.DedupConfig) Filter {
	f := Filter{
		Threshold:      cfg.Threshold,
		MinWordLength:  cfg.MinWordLength,
		MinSharedWords: cfg.MinSharedWords,
		MinCoverage:    cfg.MinCoverage,
	}
	if f.Threshold <= 0 {
		f.Threshold = DefaultThreshold
	}
	if f.MinWordLength <= 0 {
		f.MinWordLength = DefaultMinWordLength
	}
	if f.MinSharedWords <= 0 {
		f.MinSharedWords = DefaultMinSharedWords
	}
	if f.MinCoverage <= 0 {
		f.MinCoverage = DefaultMinCoverage
	}
	return f
}

// Normalize returns a lowercased, punctuation-stripped, whitespace-collapsed title.
func Normalize(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(norm.NFKC.String(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// contentWords returns the set of words in a normalized title that are
// longer than MinWordLength and not stop words.
func (f Filter) contentWords(normalized string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) <= f.MinWordLength || stopWords[w] {
			continue
		}
		words[w] = true
	}
	return words
}

type overlap struct {
	shared, smaller, larger int
}

func (f Filter) overlap(a, b string) overlap {
	wa := f.contentWords(Normalize(a))
	wb := f.contentWords(Normalize(b))
	o := overlap{smaller: min(len(wa), len(wb)), larger: max(len(wa), len(wb))}
	for w := range wa {
		if wb[w] {
			o.shared++
		}
	}
	return o
}

// Overlap returns the shared content-word fraction of two titles: the size
// of the intersection over the size of the smaller word set.
func (f Filter) Overlap(a, b string) float64 {
	o := f.overlap(a, b)
	if o.smaller == 0 {
		return 0
	}
	return float64(o.shared) / float64(o.smaller)
}

// similar reports a fuzzy match: Overlap at or above Threshold, with enough
// shared words and enough coverage of the larger title.
func (f Filter) similar(a, b string) bool {
	o := f.overlap(a, b)
	if o.smaller == 0 || o.shared < f.MinSharedWords {
		return false
	}
	return float64(o.shared)/float64(o.smaller) >= f.Threshold &&
		float64(o.shared)/float64(o.larger) >= f.MinCoverage
}

// IsDuplicate reports whether candidate matches any existing title exactly
// after normalization or is a fuzzy match for one.
func (f Filter) IsDuplicate(candidate string, existing []string) bool {
	_, dup := f.match(candidate, existing)
	return dup
}

func (f Filter) match(candidate string, existing []string) (string, bool) {
	nc := Normalize(candidate)
	if nc == "" {
		return "", false
	}
	for _, e := range existing {
		if Normalize(e) == nc {
			return e, true
		}
		if f.similar(candidate, e) {
			return e, true
		}
	}
	return "", false
}

// Removed records one filtered candidate and the title it collided with.
type Removed struct {
	Candidate string
	Matched   string
}

// Filter returns the candidates that duplicate neither an existing title nor
// an earlier surviving candidate, in their original order, and the number removed.
func (f Filter) Filter(candidates, existing []string) ([]string, int) {
	kept, removed := f.Prune(candidates, existing)
	return kept, len(removed)
}

// Prune is Filter but reports each removed candidate with the title it matched.
func (f Filter) Prune(candidates, existing []string) ([]string, []Removed) {
	known := append([]string(nil), existing...)
	var kept []string
	var removed []Removed
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if m, dup := f.match(c, known); dup {
			removed = append(removed, Removed{Candidate: c, Matched: m})
			continue
		}
		kept = append(kept, c)
		known = append(known, c)
	}
	return kept, removed
}
