// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/content-engine/pkg/types"
)

const existingTitle = "The Future of Sustainable Packaging"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"The Future of Sustainable Packaging", "the future of sustainable packaging"},
		{"  Hello,   World!  ", "hello world"},
		{"AI-Driven Ops: 2026 Edition", "aidriven ops 2026 edition"},
		{"Ｆｕｌｌｗｉｄｔｈ Title", "fullwidth title"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	f := New(types.DedupConfig{})
	existing := []string{existingTitle}

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"exact ignoring case", "The future of sustainable packaging", true},
		{"exact ignoring punctuation", "The Future of Sustainable Packaging!", true},
		{"fuzzy accept", "Future of Sustainable Packaging Solutions", true},
		{"fuzzy reject", "The History of Sustainable Packaging", false},
		{"unrelated", "Hiring Your First Sales Team", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsDuplicate(tt.candidate, existing))
		})
	}
}

func TestOverlap(t *testing.T) {
	f := New(types.DedupConfig{})
	assert.InDelta(t, 1.0, f.Overlap(existingTitle, "Future of Sustainable Packaging Solutions"), 1e-9)
	assert.InDelta(t, 2.0/3.0, f.Overlap(existingTitle, "The History of Sustainable Packaging"), 1e-9)
	assert.Zero(t, f.Overlap("of a", existingTitle), "no content words")
}

func TestThresholdIsConfigurable(t *testing.T) {
	strict := New(types.DedupConfig{Threshold: 1.01})
	assert.False(t, strict.IsDuplicate("Future of Sustainable Packaging Solutions", []string{existingTitle}))
	assert.True(t, strict.IsDuplicate("the future of sustainable packaging", []string{existingTitle}), "exact match ignores the threshold")

	loose := New(types.DedupConfig{Threshold: 0.6})
	assert.True(t, loose.IsDuplicate("The History of Sustainable Packaging", []string{existingTitle}))
}

func TestMinWordLength(t *testing.T) {
	f := New(types.DedupConfig{MinWordLength: 6})
	// only "sustainable" and "packaging" count at this length
	assert.True(t, f.IsDuplicate("Packaging Sustainable Ideas", []string{existingTitle}))
}

func TestShortTitleDoesNotSwallowLongerOnes(t *testing.T) {
	f := New(types.DedupConfig{})
	existing := []string{"Sustainable Packaging"}

	long := "Sustainable Packaging Regulations in the European Union"
	assert.InDelta(t, 1.0, f.Overlap(long, existing[0]), 1e-9)
	assert.False(t, f.IsDuplicate(long, existing), "2 of 5 words covered")

	assert.True(t, f.IsDuplicate("Sustainable Packaging Tips", existing), "2 of 3 words covered")
	assert.True(t, f.IsDuplicate("sustainable packaging!", existing))
}

func TestMinSharedWords(t *testing.T) {
	existing := []string{"Packaging Trends"}
	assert.False(t, New(types.DedupConfig{}).IsDuplicate("Packaging", existing), "one shared word is not enough")

	loose := New(types.DedupConfig{MinSharedWords: 1})
	assert.True(t, loose.IsDuplicate("Packaging", existing))
}

func TestFilter(t *testing.T) {
	f := New(types.DedupConfig{})
	candidates := []string{
		"The future of sustainable packaging",
		"Five Ways to Cut Shipping Costs",
		"",
		"Future of Sustainable Packaging Solutions",
		"Cutting Shipping Costs: Five Ways",
		"The History of Sustainable Packaging",
	}
	kept, n := f.Filter(candidates, []string{existingTitle})
	assert.Equal(t, 3, n)

	pruned, removed := f.Prune(candidates, []string{existingTitle})
	assert.Equal(t, kept, pruned)

	assert.Equal(t, []string{
		"Five Ways to Cut Shipping Costs",
		"The History of Sustainable Packaging",
	}, kept)
	assert.Len(t, removed, 3)
	assert.Equal(t, existingTitle, removed[0].Matched)
	assert.Equal(t, "Five Ways to Cut Shipping Costs", removed[2].Matched, "earlier survivors count as existing")
}
