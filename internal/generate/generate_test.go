// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/assets"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

const outlineJSON = "```json\n" + `{
  "title": "Sustainable Packaging",
  "introduction": "Why packaging matters now",
  "sections": [
    {"title": "Materials", "description": "What replaces plastic", "subsections": [{"title": "Films", "description": "Plant-based films"}]},
    {"title": "Logistics", "description": "How goods move", "subsections": []}
  ],
  "conclusion": "Start with one change"
}` + "\n```"

// fakeText answers prompts by their opening phrase and records every prompt.
type fakeText struct {
	mu        sync.Mutex
	prompts   []string
	overrides map[string]func() (string, error)
}

func (f *fakeText) Complete(_ context.Context, prompt, _ string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	for key, fn := range f.overrides {
		if strings.Contains(prompt, key) {
			return fn()
		}
	}
	switch {
	case strings.Contains(prompt, "You are planning a blog"):
		return `["Title A", "Title B"]`, nil
	case strings.Contains(prompt, "Write a detailed outline"):
		return outlineJSON, nil
	case strings.Contains(prompt, "Write the introduction"):
		return "Packaging is changing and you will notice.", nil
	case strings.Contains(prompt, "You are writing section 1"):
		return "## Materials\n\nFilms replace plastic.", nil
	case strings.Contains(prompt, "You are writing section 2"):
		return "## Logistics\n\nLighter boxes ship cheaper.", nil
	case strings.Contains(prompt, "Write the conclusion"):
		return "## Conclusion\n\nStart small.", nil
	case strings.Contains(prompt, "Suggest metadata"):
		return `{"tags": ["Packaging", "eco", "packaging"], "category": "Sustainability"}`, nil
	case strings.Contains(prompt, "stock photo search queries"):
		return `["warehouse boxes", "recycled paper", "delivery truck", "plant film", "extra"]`, nil
	}
	return "", errors.New("unexpected prompt")
}

func (f *fakeText) promptsMatching(substr string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			out = append(out, p)
		}
	}
	return out
}

func ref(id string) types.ImageRef {
	return types.ImageRef{
		PreviewURL:       "https://images.unsplash.com/photo-" + id,
		AltText:          "boxes",
		CreditName:       "Jane Doe",
		CreditProfileURL: "https://unsplash.com/@jane",
		SourcePageURL:    "https://unsplash.com/photos/" + id,
	}
}

type fakeImages struct {
	coverErr      error
	inlineErr     error
	inline        []types.ImageRef
	coverQueries  []string
	inlineQueries [][]string
}

func (f *fakeImages) FindCover(_ context.Context, query string) (types.ImageRef, error) {
	f.coverQueries = append(f.coverQueries, query)
	if f.coverErr != nil {
		return types.ImageRef{}, f.coverErr
	}
	return ref("cover"), nil
}

func (f *fakeImages) FindInline(_ context.Context, queries []string, _ int) ([]types.ImageRef, error) {
	f.inlineQueries = append(f.inlineQueries, queries)
	return f.inline, f.inlineErr
}

func newTestGenerator(text *fakeText, images *fakeImages) *Generator {
	gov := retry.New(retry.Policy{MaxAttempts: 1}, nil)
	v := validate.New(types.ValidationConfig{MinWords: 10, TargetWords: 20}, "unsplash.com", nil)
	g := New(text, gov, images, v, types.PipelineConfig{}, nil)
	g.now = func() time.Time { return fixedNow }
	return g
}

func TestGenerate_Success(t *testing.T) {
	text := &fakeText{}
	images := &fakeImages{inline: []types.ImageRef{ref("a"), ref("cover")}}
	g := newTestGenerator(text, images)

	res, err := g.Generate(context.Background(), "Sustainable Packaging", "We sell eco boxes.")
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageInit, StageOutline, StageExpanding, StageAssembled, StageValidating, StageValid}, res.Trace)

	doc := res.Document
	assert.Equal(t, "Sustainable Packaging", doc.Title)
	assert.Equal(t, "Packaging is changing and you will notice.\n\n"+
		"## Materials\n\nFilms replace plastic.\n\n"+
		"## Logistics\n\nLighter boxes ship cheaper.\n\n"+
		"## Conclusion\n\nStart small.\n", doc.Body)
	assert.Equal(t, []string{"packaging", "eco"}, doc.Tags)
	assert.Equal(t, "Sustainability", doc.Category)
	assert.Equal(t, fixedNow, doc.CreatedDate)
	require.NotNil(t, doc.CoverImage)
	assert.Equal(t, ref("cover"), *doc.CoverImage)
	assert.Equal(t, []types.ImageRef{ref("a")}, doc.InlineImages, "cover is not repeated inline")

	assert.Equal(t, []string{"warehouse boxes"}, images.coverQueries)
	assert.Equal(t, [][]string{{"recycled paper", "delivery truck", "plant film"}}, images.inlineQueries)

	outline := text.promptsMatching("Write a detailed outline")
	require.Len(t, outline, 1)
	assert.Contains(t, outline[0], "We sell eco boxes.", "instruction passes through unmodified")
}

func TestGenerate_ExpansionChainIsOrdered(t *testing.T) {
	text := &fakeText{}
	g := newTestGenerator(text, &fakeImages{})

	_, err := g.Generate(context.Background(), "Sustainable Packaging", "")
	require.NoError(t, err)

	var order []string
	for _, p := range text.prompts {
		switch {
		case strings.Contains(p, "Write the introduction"):
			order = append(order, "introduction")
		case strings.Contains(p, "You are writing section 1"):
			order = append(order, "section 1")
		case strings.Contains(p, "You are writing section 2"):
			order = append(order, "section 2")
		case strings.Contains(p, "Write the conclusion"):
			order = append(order, "conclusion")
		}
	}
	assert.Equal(t, []string{"introduction", "section 1", "section 2", "conclusion"}, order)
	assert.Len(t, text.promptsMatching("Suggest metadata"), 1)
}

func TestGenerate_OutlineMissingConclusion(t *testing.T) {
	text := &fakeText{overrides: map[string]func() (string, error){
		"Write a detailed outline": func() (string, error) {
			return `{"title": "T", "introduction": "I", "sections": [{"title": "S", "description": "D"}]}`, nil
		},
	}}
	images := &fakeImages{}
	g := newTestGenerator(text, images)

	res, err := g.Generate(context.Background(), "Sustainable Packaging", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, types.ErrIncompleteOutline)
	assert.Contains(t, err.Error(), "conclusion")

	var te *TitleError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageOutline, te.Stage)
	assert.Equal(t, "Sustainable Packaging", te.Title)
	assert.Equal(t, []Stage{StageInit, StageOutline, StageOutlineFailed}, res.Trace)

	assert.Empty(t, text.promptsMatching("Write the introduction"), "no expansion without an outline")
	assert.Empty(t, images.coverQueries)
}

func TestGenerate_ConclusionHeadingLevel(t *testing.T) {
	tests := []struct {
		name       string
		conclusion string
		want       string
	}{
		{"deep conclusion heading", "### Conclusion\n\nStart small.", "## Conclusion\n\nStart small.\n"},
		{"takeaways under another section", "## Moving Forward\n\nPick one material.\n\n### Key Takeaways\n\n- one",
			"## Conclusion\n\n## Moving Forward\n\nPick one material.\n\n### Key Takeaways\n\n- one\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := &fakeText{overrides: map[string]func() (string, error){
				"Write the conclusion": func() (string, error) { return tt.conclusion, nil },
			}}
			g := newTestGenerator(text, &fakeImages{})

			res, err := g.Generate(context.Background(), "Sustainable Packaging", "")
			require.NoError(t, err)
			assert.Equal(t, StageValid, res.Trace[len(res.Trace)-1])
			assert.True(t, strings.HasSuffix(res.Document.Body, tt.want), "body:\n%s", res.Document.Body)

			conclusions := 0
			for _, h := range validate.Headings(res.Document.Body) {
				if validate.IsConclusionHeading(h) {
					conclusions++
				}
			}
			assert.Equal(t, 1, conclusions)
		})
	}
}

func TestGenerate_OutlineRequestFails(t *testing.T) {
	text := &fakeText{overrides: map[string]func() (string, error){
		"Write a detailed outline": func() (string, error) { return "", &retry.ClientError{Status: 401} },
	}}
	_, err := newTestGenerator(text, &fakeImages{}).Generate(context.Background(), "T", "")

	var ce *retry.ClientError
	require.ErrorAs(t, err, &ce)
	assert.True(t, retry.IsPermanent(err))
}

func TestGenerate_Fallbacks(t *testing.T) {
	text := &fakeText{overrides: map[string]func() (string, error){
		"You are writing section 2": func() (string, error) { return "", &retry.ClientError{Status: 400} },
		"Write the introduction":    func() (string, error) { return "   ", nil },
		"Write the conclusion":      func() (string, error) { return "Start small.", nil },
		"Suggest metadata":          func() (string, error) { return "tags: eco", nil },
		"stock photo search":        func() (string, error) { return "", &retry.ServerError{Status: 500} },
	}}
	images := &fakeImages{}
	g := newTestGenerator(text, images)

	res, err := g.Generate(context.Background(), "Sustainable Packaging", "")
	require.NoError(t, err)
	body := res.Document.Body

	assert.True(t, strings.HasPrefix(body, strings.TrimSpace(Fallback(SlotIntroduction, "Sustainable Packaging", "Why packaging matters now"))))
	assert.Contains(t, body, "## Logistics\n\n"+strings.TrimSpace(Fallback(SlotSection, "Sustainable Packaging", "How goods move")))
	assert.Contains(t, body, "## Conclusion\n\nStart small.")
	assert.Equal(t, 1, strings.Count(body, "## Conclusion"))

	assert.Equal(t, []string{"business"}, res.Document.Tags)
	assert.Equal(t, "General", res.Document.Category)

	assert.Equal(t, []string{"Sustainable Packaging"}, images.coverQueries)
	assert.Equal(t, [][]string{{"Materials", "Logistics"}}, images.inlineQueries)
}

func TestGenerate_NoCover(t *testing.T) {
	images := &fakeImages{coverErr: assets.ErrNotFound}
	res, err := newTestGenerator(&fakeText{}, images).Generate(context.Background(), "T", "")

	assert.ErrorIs(t, err, ErrNoCover)
	assert.ErrorIs(t, err, assets.ErrNotFound)
	var te *TitleError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageValidating, te.Stage)
	assert.Equal(t, StageAbort, res.Trace[len(res.Trace)-1])
}

func TestGenerate_InlineFailureIsSoft(t *testing.T) {
	images := &fakeImages{inlineErr: errors.New("search down")}
	res, err := newTestGenerator(&fakeText{}, images).Generate(context.Background(), "T", "")
	require.NoError(t, err)
	assert.Empty(t, res.Document.InlineImages)
	assert.NotNil(t, res.Document.CoverImage)
}

func TestGenerate_CleaningPass(t *testing.T) {
	text := &fakeText{overrides: map[string]func() (string, error){
		"You are writing section 1": func() (string, error) {
			return "## Materials\n\n![film](https://example.com/film.png)\n\nFilms replace plastic.", nil
		},
	}}
	res, err := newTestGenerator(text, &fakeImages{}).Generate(context.Background(), "T", "")
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageInit, StageOutline, StageExpanding, StageAssembled, StageValidating,
		StageInvalid, StageCleanRetry, StageValid}, res.Trace)
	assert.NotContains(t, res.Document.Body, "film.png")
	assert.True(t, res.Report.Healed())
}

func TestGenerate_ValidationAbort(t *testing.T) {
	text := &fakeText{overrides: map[string]func() (string, error){
		"You are writing section 1": func() (string, error) {
			return `## Materials

<im<img src="a.png">g src="b.png">`, nil
		},
	}}
	res, err := newTestGenerator(text, &fakeImages{}).Generate(context.Background(), "T", "")

	assert.ErrorIs(t, err, validate.ErrValidation)
	assert.Equal(t, []Stage{StageInit, StageOutline, StageExpanding, StageAssembled, StageValidating,
		StageInvalid, StageCleanRetry, StageAbort}, res.Trace)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	text := &fakeText{overrides: map[string]func() (string, error){
		"Write the introduction": func() (string, error) {
			cancel()
			return "", context.Canceled
		},
	}}
	_, err := newTestGenerator(text, &fakeImages{}).Generate(ctx, "T", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTitles(t *testing.T) {
	text := &fakeText{}
	titles, err := newTestGenerator(text, &fakeImages{}).Titles(context.Background(), "We sell eco boxes.", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title A", "Title B"}, titles)

	p := text.promptsMatching("You are planning a blog")
	require.Len(t, p, 1)
	assert.Contains(t, p[0], "Propose 4 distinct")
}

func TestTitleErrorMessage(t *testing.T) {
	err := &TitleError{Title: "T", Stage: StageOutline, Err: ErrParse}
	assert.Equal(t, `"T": OUTLINE: unparseable response`, err.Error())
	assert.Equal(t, "<nil>", (*TitleError)(nil).Error())
}
