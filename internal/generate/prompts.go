// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

// promptData is the value every prompt template is rendered with.
type promptData struct {
	Instruction string
	Title       string
	Count       int
	Outline     types.Outline
	Section     types.OutlineSection
	Position    int
}

var titlesPromptTmpl = template.Must(template.New("titles").Parse(`You are planning a blog for the following business:

{{.Instruction}}

Propose {{.Count}} distinct long-form article titles that this business's customers would search for. Each title should name one concrete topic. Avoid listicle clickbait and avoid repeating the same topic with different wording.

Respond with a JSON array of strings and nothing else.
`))

var outlinePromptTmpl = template.Must(template.New("outline").Parse(`Write a detailed outline for a long-form article titled "{{.Title}}".
{{if .Instruction}}
The article is published by this business:
{{.Instruction}}
{{end}}
Respond with a single JSON object and nothing else, shaped like:
{"title": "...", "introduction": "what the introduction covers", "sections": [{"title": "...", "description": "what the section covers", "subsections": [{"title": "...", "description": "..."}]}], "conclusion": "what the conclusion covers"}

Use between four and seven sections. Every field must be filled in.
`))

var introductionPromptTmpl = template.Must(template.New("introduction").Parse(`Write the introduction for the article "{{.Title}}".

The introduction should cover: {{.Outline.Introduction}}

The article continues with these sections:
{{range .Outline.Sections}}- {{.Title}}
{{end}}
Write two to four paragraphs of plain markdown prose in a warm, direct voice that speaks to the reader. Do not include any headings, images, image links or placeholders.
`))

var sectionPromptTmpl = template.Must(template.New("section").Parse(`You are writing section {{.Position}} of the article "{{.Title}}".

Section heading: {{.Section.Title}}
What it covers: {{.Section.Description}}
{{if .Section.Subsections}}
Cover these points in order, each under a level-3 heading:
{{range .Section.Subsections}}- {{.Title}}: {{.Description}}
{{end}}{{end}}
Start with the level-2 heading "## {{.Section.Title}}". Write in markdown with concrete examples. Do not include images, image links, image placeholders or a conclusion.
`))

var conclusionPromptTmpl = template.Must(template.New("conclusion").Parse(`Write the conclusion for the article "{{.Title}}".

The conclusion should cover: {{.Outline.Conclusion}}

Start with the level-2 heading "## Conclusion". Write one to three paragraphs ending with a clear next step for the reader. Do not include images or image links.
`))

var metadataPromptTmpl = template.Must(template.New("metadata").Parse(`Suggest metadata for the article "{{.Title}}".

Sections:
{{range .Outline.Sections}}- {{.Title}}
{{end}}
Respond with a single JSON object and nothing else: {"tags": ["three to six lowercase tags"], "category": "one short category name"}
`))

var imageQueriesPromptTmpl = template.Must(template.New("image-queries").Parse(`Suggest {{.Count}} stock photo search queries for the article "{{.Title}}".

Sections:
{{range .Outline.Sections}}- {{.Title}}
{{end}}
The first query is for the cover photo. Describe real-world scenes with people, places or objects. Never ask for screenshots, software, logos or user interfaces.

Respond with a JSON array of strings and nothing else.
`))

func render(t *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}

// Slot names one expandable part of an article.
type Slot string

const (
	SlotIntroduction Slot = "introduction"
	SlotSection      Slot = "section"
	SlotConclusion   Slot = "conclusion"
)

// fallbackData holds the fields a fallback may use. Fallbacks are built
// only from what is already known about the article.
type fallbackData struct {
	Title       string
	Description string
}

// fallbacks maps each slot to the text substituted when its expansion fails.
var fallbacks = map[Slot]*template.Template{
	SlotIntroduction: template.Must(template.New("introduction-fallback").Parse(
		`{{.Title}} is a topic worth getting right. {{.Description}}

In this article we walk through the ideas that matter most and what you can do about each of them.`)),
	SlotSection: template.Must(template.New("section-fallback").Parse(
		`{{.Description}}

This part of {{printf "%q" .Title}} deserves a closer look as you plan your next steps.`)),
	SlotConclusion: template.Must(template.New("conclusion-fallback").Parse(
		`## Conclusion

{{.Description}}

Take what applies to you from {{printf "%q" .Title}} and start with one small change this week.`)),
}

// Fallback renders the fallback text for slot. Rendering the fixed table
// with string fields cannot fail, so an unknown slot yields an empty string.
func Fallback(slot Slot, title, description string) string {
	t, ok := fallbacks[slot]
	if !ok {
		return ""
	}
	var b strings.Builder
	if err := t.Execute(&b, fallbackData{Title: title, Description: strings.TrimSpace(description)}); err != nil {
		return ""
	}
	return b.String()
}
