// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

const goodBody = `Packaging is changing fast, and you're going to notice.

## Materials

Plant-based films are replacing plastic wrap.

### Key Takeaways

Subsection headings with conclusion-like names are fine.

## Logistics

Lighter boxes cut shipping costs.

## Conclusion

Start small and measure.
`

func unsplashRef(id string) types.ImageRef {
	return types.ImageRef{
		PreviewURL:       "https://images.unsplash.com/photo-" + id,
		AltText:          "boxes on a table",
		CreditName:       "Jane Doe",
		CreditProfileURL: "https://unsplash.com/@jane",
		SourcePageURL:    "https://unsplash.com/photos/" + id,
	}
}

func testDoc(body string) types.Document {
	cover := unsplashRef("cover")
	return types.Document{
		Title:        "The Future of Sustainable Packaging",
		Body:         body,
		CoverImage:   &cover,
		Category:     "Sustainability",
		CreatedDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		InlineImages: []types.ImageRef{unsplashRef("a")},
	}
}

func newValidator() *Validator {
	return New(types.ValidationConfig{MinWords: 1500, TargetWords: 2500}, "unsplash.com", nil)
}

func TestValidate_Valid(t *testing.T) {
	doc := testDoc(goodBody)
	out, rep, err := newValidator().Validate(doc)
	require.NoError(t, err)

	assert.Equal(t, goodBody, out.Body)
	assert.False(t, rep.Healed())
	assert.True(t, rep.BelowMinimum)
	assert.True(t, rep.BelowTarget)
	assert.Positive(t, rep.Words)
	assert.GreaterOrEqual(t, rep.ConversationalMarkers, 2, "you + you're")
}

func TestValidate_SelfHeals(t *testing.T) {
	body := strings.Replace(goodBody, "Plant-based films",
		"![A roll of film](https://example.com/film.png)\n\n\n\nPlant-based films", 1)
	doc := testDoc(body)

	out, rep, err := newValidator().Validate(doc)
	require.NoError(t, err)

	assert.True(t, rep.Healed())
	assert.Contains(t, rep.Stripped, "markdown image")
	assert.NotContains(t, out.Body, "![")
	assert.NotContains(t, out.Body, "film.png")
	assert.NotContains(t, out.Body, "\n\n\n")
	assert.Equal(t, body, doc.Body, "input document is not mutated")
}

func TestValidate_PersistentPatternFails(t *testing.T) {
	body := strings.Replace(goodBody, "Lighter boxes",
		`<im<img src="a.png">g src="b.png"> Lighter boxes`, 1)

	_, rep, err := newValidator().Validate(testDoc(body))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "img tag")
	assert.Contains(t, rep.Stripped, "img tag")
}

func TestValidate_StripsEachPattern(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
	}{
		{"reference image", "![chart][fig1]"},
		{"image URL", "See https://cdn.example.com/pics/chart.JPG for details."},
		{"image URL", "Sized at https://cdn.example.com/a.webp?w=600."},
		{"placeholder domain", "https://via.placeholder.com/600x400"},
		{"image placeholder", "[Insert image of a warehouse here]"},
		{"img tag", `<IMG SRC="x">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(goodBody, "Start small", tt.snippet+"\n\nStart small", 1)
			out, rep, err := newValidator().Validate(testDoc(body))
			require.NoError(t, err)
			assert.Contains(t, rep.Stripped, tt.name)
			assert.NotContains(t, out.Body, tt.snippet)
		})
	}
}

func TestValidate_KeepsOrdinaryLinks(t *testing.T) {
	links := "Read https://www.jpeg.org and https://docs.svgjs.dev/docs/3.0/.\n\n" +
		"[Photo credits](https://unsplash.com/@jane) and [image gallery](https://unsplash.com/collections/1)."
	body := strings.Replace(goodBody, "Start small", links+"\n\nStart small", 1)

	out, rep, err := newValidator().Validate(testDoc(body))
	require.NoError(t, err)
	assert.False(t, rep.Healed(), "stripped %v", rep.Stripped)
	assert.Equal(t, body, out.Body)
}

func TestValidate_StripsPlaceholderBesideLink(t *testing.T) {
	body := strings.Replace(goodBody, "Start small",
		"[Photo credits](https://unsplash.com/@jane) [insert photo here]\n\nStart small", 1)

	out, rep, err := newValidator().Validate(testDoc(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"image placeholder"}, rep.Stripped)
	assert.Contains(t, out.Body, "[Photo credits](https://unsplash.com/@jane)")
	assert.NotContains(t, out.Body, "[insert photo here]")
}

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "  \n", "empty body"},
		{"no sections", "Intro.\n\n## Conclusion\n\nDone.\n", "no section headings"},
		{"no conclusion", "Intro.\n\n## Materials\n\nText.\n", "0 conclusion headings"},
		{"two conclusions", "## Materials\n\nText.\n\n## Summary\n\nA.\n\n## Final Thoughts\n\nB.\n", "2 conclusion headings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newValidator().Validate(testDoc(tt.body))
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsConclusion(t *testing.T) {
	tests := []struct {
		heading string
		want    bool
	}{
		{"Conclusion", true},
		{"in conclusion", true},
		{"Final Thoughts: Where Packaging Goes Next", true},
		{"KEY TAKEAWAYS", true},
		{"Wrapping Up", true},
		{"Summary", true},
		{"Conclusions Drawn From Data", false},
		{"Materials", false},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConclusion(tt.heading))
		})
	}
}

func TestHeadings(t *testing.T) {
	hs := newValidator().Headings("# Title\n\n## First *part*\n\ntext\n\n### Sub\n")
	assert.Equal(t, []Heading{
		{Level: 1, Text: "Title"},
		{Level: 2, Text: "First part"},
		{Level: 3, Text: "Sub"},
	}, hs)
}

func TestIsConclusionHeading(t *testing.T) {
	assert.True(t, IsConclusionHeading(Heading{Level: 2, Text: "Conclusion"}))
	assert.True(t, IsConclusionHeading(Heading{Level: 1, Text: "Final Thoughts"}))
	assert.False(t, IsConclusionHeading(Heading{Level: 3, Text: "Key Takeaways"}))
	assert.False(t, IsConclusionHeading(Heading{Level: 2, Text: "Materials"}))

	hs := Headings("Conclusion\n==========\n\nDone.\n")
	require.Len(t, hs, 1)
	assert.True(t, IsConclusionHeading(hs[0]), "setext headings count too")
}

func TestCheckProvenance(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Document)
		want   string
	}{
		{"http cover", func(d *types.Document) { d.CoverImage.PreviewURL = "http://images.unsplash.com/x" }, "not https"},
		{"offsite inline", func(d *types.Document) { d.InlineImages[0].SourcePageURL = "https://pexels.com/p/1" }, "outside unsplash.com"},
		{"missing credit URL", func(d *types.Document) { d.InlineImages[0].CreditProfileURL = "" }, "missing URL"},
		{"lookalike domain", func(d *types.Document) { d.CoverImage.PreviewURL = "https://notunsplash.com/x" }, "outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc(goodBody)
			tt.mutate(&doc)
			_, _, err := newValidator().Validate(doc)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	doc := testDoc(goodBody)
	doc.CoverImage = nil
	doc.InlineImages = nil
	assert.NoError(t, newValidator().CheckProvenance(doc))
}

func TestRenderHTML(t *testing.T) {
	html, err := newValidator().RenderHTML("## Materials\n\nText.\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>Materials</h2>")
}
