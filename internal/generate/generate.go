// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns titles into finished articles. A Generator drives
// one title through outline, expansion, imagery and validation; a Batch
// runs many titles from one instruction.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/internal/textgen"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ImageResolver finds vetted images for an article.
type ImageResolver interface {
	FindCover(ctx context.Context, query string) (types.ImageRef, error)
	FindInline(ctx context.Context, queries []string, perQuery int) ([]types.ImageRef, error)
}

// DocumentValidator checks an assembled document and returns a cleaned copy.
type DocumentValidator interface {
	Validate(doc types.Document) (types.Document, validate.Report, error)
}

// Result is a finished document together with how it got there.
type Result struct {
	Document types.Document
	Report   validate.Report
	Trace    []Stage
}

// Generator produces one article per title.
type Generator struct {
	text      textgen.Completer
	gov       *retry.Governor
	images    ImageResolver
	validator DocumentValidator
	cfg       types.GenerationConfig
	perQuery  int
	log       *slog.Logger
	now       func() time.Time
	titleCase cases.Caser
}

// New returns a Generator. cfg supplies the generation, image and text
// settings; its zero values are filled by WithDefaults.
func New(text textgen.Completer, gov *retry.Governor, images ImageResolver, validator DocumentValidator, cfg types.PipelineConfig, log *slog.Logger) *Generator {
	cfg = cfg.WithDefaults()
	return &Generator{
		text:      text,
		gov:       gov,
		images:    images,
		validator: validator,
		cfg:       cfg.Generation,
		perQuery:  cfg.Images.InlinePerQuery,
		log:       logging.OrNop(log),
		now:       time.Now,
		titleCase: cases.Title(language.English, cases.NoLower),
	}
}

// complete sends one prompt to the text service under the retry governor.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	return retry.Execute(ctx, g.gov, func(ctx context.Context) (string, error) {
		return g.text.Complete(ctx, prompt, "")
	})
}

func (g *Generator) ask(ctx context.Context, t *template.Template, data promptData) (string, error) {
	prompt, err := render(t, data)
	if err != nil {
		return "", err
	}
	return g.complete(ctx, prompt)
}

// Titles asks the text service for count candidate titles for instruction.
func (g *Generator) Titles(ctx context.Context, instruction string, count int) ([]string, error) {
	resp, err := g.ask(ctx, titlesPromptTmpl, promptData{Instruction: instruction, Count: count})
	if err != nil {
		return nil, fmt.Errorf("generating titles: %w", err)
	}
	titles, err := parseList(resp)
	if err != nil {
		return nil, fmt.Errorf("parsing titles: %w", err)
	}
	return titles, nil
}

// Generate runs one title through the full pipeline. Every failure is a
// *TitleError naming the stage it happened in; the returned Result carries
// the trace either way.
func (g *Generator) Generate(ctx context.Context, title, instruction string) (Result, error) {
	res := Result{Trace: []Stage{StageInit}}
	step := func(s Stage) { res.Trace = append(res.Trace, s) }
	fail := func(at Stage, err error, end Stage) (Result, error) {
		step(end)
		g.log.Warn("title abandoned", "title", title, "stage", at, "error", err)
		return res, &TitleError{Title: title, Stage: at, Err: err}
	}

	step(StageOutline)
	outline, err := g.outline(ctx, title, instruction)
	if err != nil {
		return fail(StageOutline, err, StageOutlineFailed)
	}

	step(StageExpanding)
	blocks, md, err := g.expand(ctx, title, outline)
	if err != nil {
		return fail(StageExpanding, err, StageAbort)
	}

	step(StageAssembled)
	doc := types.Document{
		Title:       title,
		Body:        strings.Join(blocks, "\n\n") + "\n",
		Tags:        md.Tags,
		Category:    md.Category,
		CreatedDate: g.now().UTC(),
	}

	step(StageValidating)
	queries := g.imageQueries(ctx, title, outline)
	cover, err := g.images.FindCover(ctx, queries[0])
	if err != nil {
		if ctx.Err() != nil {
			return fail(StageValidating, ctx.Err(), StageAbort)
		}
		return fail(StageValidating, fmt.Errorf("%w: %w", ErrNoCover, err), StageAbort)
	}
	doc.CoverImage = &cover

	inline, err := g.images.FindInline(ctx, queries[1:], g.perQuery)
	if err != nil {
		g.log.Warn("inline images unavailable", "title", title, "error", err)
		inline = nil
	}
	doc.InlineImages = dropImage(inline, cover.PreviewURL)

	clean, report, err := g.validator.Validate(doc)
	res.Report = report
	if report.Healed() {
		step(StageInvalid)
		step(StageCleanRetry)
	}
	if err != nil {
		if !report.Healed() {
			step(StageInvalid)
		}
		return fail(StageValidating, err, StageAbort)
	}
	step(StageValid)

	if report.BelowMinimum {
		g.log.Info("article shorter than minimum", "title", title, "words", report.Words)
	}
	if report.ConversationalMarkers == 0 {
		g.log.Info("article has no conversational markers", "title", title)
	}
	res.Document = clean
	return res, nil
}

func (g *Generator) outline(ctx context.Context, title, instruction string) (types.Outline, error) {
	resp, err := g.ask(ctx, outlinePromptTmpl, promptData{Title: title, Instruction: instruction})
	if err != nil {
		return types.Outline{}, fmt.Errorf("requesting outline: %w", err)
	}
	return parseOutline(resp)
}

// expansion is one slot of the article body.
type expansion struct {
	slot        Slot
	heading     string
	description string
	data        promptData
	tmpl        *template.Template
}

// expand runs metadata generation alongside the ordered expansion chain.
// The chain runs one task at a time in outline order.
func (g *Generator) expand(ctx context.Context, title string, o types.Outline) ([]string, types.Metadata, error) {
	tasks := []expansion{{
		slot: SlotIntroduction, description: o.Introduction, tmpl: introductionPromptTmpl,
		data: promptData{Title: title, Outline: o},
	}}
	for i, s := range o.Sections {
		tasks = append(tasks, expansion{
			slot: SlotSection, heading: s.Title, description: s.Description, tmpl: sectionPromptTmpl,
			data: promptData{Title: title, Outline: o, Section: s, Position: i + 1},
		})
	}
	tasks = append(tasks, expansion{
		slot: SlotConclusion, description: o.Conclusion, tmpl: conclusionPromptTmpl,
		data: promptData{Title: title, Outline: o},
	})

	var md types.Metadata
	var meta errgroup.Group
	meta.Go(func() error {
		md = g.metadata(ctx, title, o)
		return nil
	})

	blocks := make([]string, len(tasks))
	var chain errgroup.Group
	chain.SetLimit(1)
	for i, t := range tasks {
		chain.Go(func() error {
			blocks[i] = g.expandOne(ctx, title, t)
			return nil
		})
	}
	_ = chain.Wait()
	_ = meta.Wait()

	if err := ctx.Err(); err != nil {
		return nil, types.Metadata{}, err
	}
	return blocks, md, nil
}

// expandOne returns the text for one slot, substituting the slot's fallback
// when the request fails or comes back empty, and enforcing its heading.
func (g *Generator) expandOne(ctx context.Context, title string, t expansion) string {
	text, err := g.ask(ctx, t.tmpl, t.data)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err == nil {
			err = textgen.ErrEmptyResponse
		}
		g.log.Warn("expansion failed, using fallback", "title", title, "slot", t.slot, "heading", t.heading, "error", err)
		text = strings.TrimSpace(Fallback(t.slot, title, t.description))
	}

	switch t.slot {
	case SlotSection:
		if !leadsWithSectionHeading(text) {
			text = "## " + g.titleCase.String(t.heading) + "\n\n" + text
		}
	case SlotConclusion:
		text = withConclusionHeading(text)
	}
	return text
}

// metadata returns generated tags and category, filling whatever is
// missing from the configured defaults.
func (g *Generator) metadata(ctx context.Context, title string, o types.Outline) types.Metadata {
	fallback := types.Metadata{Tags: g.cfg.DefaultTags, Category: g.cfg.DefaultCategory}
	resp, err := g.ask(ctx, metadataPromptTmpl, promptData{Title: title, Outline: o})
	if err != nil {
		g.log.Warn("metadata failed, using defaults", "title", title, "error", err)
		return fallback
	}
	md, err := parseMetadata(resp)
	if err != nil {
		g.log.Warn("metadata unparseable, using defaults", "title", title, "error", err)
		return fallback
	}
	if len(md.Tags) == 0 {
		md.Tags = fallback.Tags
	}
	if md.Category == "" {
		md.Category = fallback.Category
	}
	return md
}

// imageQueries returns the cover query followed by the inline queries.
// When generation fails the title and section titles are used instead.
func (g *Generator) imageQueries(ctx context.Context, title string, o types.Outline) []string {
	want := 1 + g.cfg.InlineQueries
	resp, err := g.ask(ctx, imageQueriesPromptTmpl, promptData{Title: title, Outline: o, Count: want})
	var queries []string
	if err == nil {
		queries, err = parseList(resp)
	}
	if err != nil || len(queries) == 0 {
		if !errors.Is(err, context.Canceled) {
			g.log.Warn("image queries failed, using outline titles", "title", title, "error", err)
		}
		queries = []string{title}
		for _, s := range o.Sections {
			queries = append(queries, s.Title)
		}
	}
	if len(queries) > want {
		queries = queries[:want]
	}
	return queries
}

func dropImage(refs []types.ImageRef, previewURL string) []types.ImageRef {
	var out []types.ImageRef
	for _, r := range refs {
		if r.PreviewURL != previewURL {
			out = append(out, r)
		}
	}
	return out
}
