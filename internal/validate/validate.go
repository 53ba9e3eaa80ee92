// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks assembled articles for structure, stray image
// markup and image provenance before they are persisted.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/content-engine/internal/assets"
	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrValidation reports a document that cannot be persisted.
var ErrValidation = errors.New("validation failed")

// ConclusionHeadings are the heading texts recognized as a conclusion,
// compared case-insensitively.
var ConclusionHeadings = []string{
	"conclusion",
	"in conclusion",
	"final thoughts",
	"key takeaways",
	"wrapping up",
	"summary",
}

type pattern struct {
	name string
	re   *regexp.Regexp
	// keep, when set, exempts matches that are not really image markup.
	keep func(match string) bool
}

func (p pattern) found(body string) bool {
	for _, m := range p.re.FindAllString(body, -1) {
		if p.keep == nil || !p.keep(m) {
			return true
		}
	}
	return false
}

func (p pattern) strip(body string) string {
	return p.re.ReplaceAllStringFunc(body, func(m string) string {
		if p.keep != nil && p.keep(m) {
			return m
		}
		return ""
	})
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".bmp": true,
}

// notImageURL reports whether a URL's path does not end in an image
// extension. Hosts like www.jpeg.org do not count.
func notImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return !imageExts[strings.ToLower(path.Ext(u.Path))]
}

// isLinkText reports whether a bracketed match is the text of an inline link.
func isLinkText(m string) bool { return strings.HasSuffix(m, "(") }

// forbidden lists the image markup a body must not contain. Order matters
// for stripping: whole constructs go before the URLs they contain.
var forbidden = []pattern{
	{name: "markdown image", re: regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)},
	{name: "reference image", re: regexp.MustCompile(`!\[[^\]]*\]\[[^\]]*\]`)},
	{name: "image reference definition", re: regexp.MustCompile(`(?im)^[ \t]*\[[^\]]+\]:[ \t]*\S+\.(?:png|jpe?g|gif|webp|svg|bmp)\S*[ \t]*$`)},
	{name: "img tag", re: regexp.MustCompile(`(?i)<img\b[^>]*>`)},
	{name: "placeholder domain", re: regexp.MustCompile(`(?i)https?://(?:www\.)?(?:via\.placeholder\.com|placeholder\.com|placehold\.it|placehold\.co|placekitten\.com|picsum\.photos|dummyimage\.com|lorempixel\.com|fakeimg\.pl)\S*`)},
	{name: "image URL", re: regexp.MustCompile(`(?i)https?://[^\s()<>\[\]"']*[^\s()<>\[\]"'.,;:!?]`), keep: notImageURL},
	{name: "image placeholder", re: regexp.MustCompile(`(?i)\[\s*(?:insert|add|place|include)?\s*(?:an?\s+|the\s+)?(?:image|photo|picture|graphic|illustration)\b[^\]]*\]\(?`), keep: isLinkText},
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// markdown parses bodies outside a Validator.
var markdown = goldmark.New()

// MaxConclusionLevel is the deepest heading level that counts as an
// article's conclusion or as one of its sections.
const MaxConclusionLevel = 2

var (
	wordRE        = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)?`)
	pronounRE     = regexp.MustCompile(`(?i)\b(?:you|your|yours|we|our|us)\b`)
	contractionRE = regexp.MustCompile(`(?i)\b[a-z]+['’](?:s|re|ve|ll|d|t|m)\b`)
	engagementRE  = regexp.MustCompile(`(?i)\b(?:let's|imagine|have you ever|think about|here's the thing|picture this|the good news)\b`)
)

// Report carries advisory findings. None of them reject a document.
type Report struct {
	// Words is the body word count.
	Words int

	// BelowMinimum and BelowTarget compare Words to the configured thresholds.
	BelowMinimum bool
	BelowTarget  bool

	// ConversationalMarkers counts pronouns, contractions and engagement phrases.
	ConversationalMarkers int

	// Stripped names the forbidden patterns removed by the cleaning pass.
	Stripped []string
}

// Healed reports whether the body needed the cleaning pass.
func (r Report) Healed() bool { return len(r.Stripped) > 0 }

// Validator checks documents against one approved image domain and the
// advisory word-count thresholds.
type Validator struct {
	domain      string
	minWords    int
	targetWords int
	md          goldmark.Markdown
	log         *slog.Logger
}

// New returns a Validator. Zero thresholds disable the word-count advisories.
func New(cfg types.ValidationConfig, domain string, log *slog.Logger) *Validator {
	return &Validator{
		domain:      domain,
		minWords:    cfg.MinWords,
		targetWords: cfg.TargetWords,
		md:          goldmark.New(),
		log:         logging.OrNop(log),
	}
}

// Validate returns a cleaned copy of doc. Forbidden image markup gets one
// stripping pass; anything that survives it, a broken heading structure, or
// an image reference outside the approved domain fails with ErrValidation.
func (v *Validator) Validate(doc types.Document) (types.Document, Report, error) {
	var rep Report
	if strings.TrimSpace(doc.Body) == "" {
		return doc, rep, fmt.Errorf("%w: empty body", ErrValidation)
	}

	body := doc.Body
	if found := v.violations(body); len(found) > 0 {
		rep.Stripped = found
		body = strip(body)
		v.log.Debug("stripped forbidden image markup", "title", doc.Title, "patterns", found)
		if left := v.violations(body); len(left) > 0 {
			return doc, rep, fmt.Errorf("%w: %s remains after cleaning", ErrValidation, strings.Join(left, ", "))
		}
	}

	if err := v.checkStructure(body); err != nil {
		return doc, rep, err
	}
	if err := v.CheckProvenance(doc); err != nil {
		return doc, rep, err
	}

	out := doc
	out.Body = body
	rep.Words = len(wordRE.FindAllString(body, -1))
	rep.BelowMinimum = v.minWords > 0 && rep.Words < v.minWords
	rep.BelowTarget = v.targetWords > 0 && rep.Words < v.targetWords
	rep.ConversationalMarkers = len(pronounRE.FindAllString(body, -1)) +
		len(contractionRE.FindAllString(body, -1)) +
		len(engagementRE.FindAllString(body, -1))
	return out, rep, nil
}

// violations names every forbidden pattern present in body, including image
// nodes the markdown parser finds that the patterns missed.
func (v *Validator) violations(body string) []string {
	var found []string
	for _, p := range forbidden {
		if p.found(body) {
			found = append(found, p.name)
		}
	}
	if len(found) == 0 && v.hasImageNode(body) {
		found = append(found, "parsed image")
	}
	return found
}

func strip(body string) string {
	for _, p := range forbidden {
		body = p.strip(body)
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(body, "\n\n")) + "\n"
}

func (v *Validator) parse(body string) (ast.Node, []byte) {
	return parse(v.md, body)
}

func parse(md goldmark.Markdown, body string) (ast.Node, []byte) {
	src := []byte(body)
	return md.Parser().Parse(text.NewReader(src)), src
}

func (v *Validator) hasImageNode(body string) bool {
	root, _ := v.parse(body)
	found := false
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindImage {
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// Heading is one markdown heading found in a body.
type Heading struct {
	Level int
	Text  string
}

// Headings returns the headings of a markdown body in document order.
func Headings(body string) []Heading {
	return headings(markdown, body)
}

// Headings returns the headings of a markdown body in document order.
func (v *Validator) Headings(body string) []Heading {
	return headings(v.md, body)
}

func headings(md goldmark.Markdown, body string) []Heading {
	root, src := parse(md, body)
	var hs []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		hs = append(hs, Heading{Level: h.Level, Text: strings.TrimSpace(nodeText(h, src))})
		return ast.WalkSkipChildren, nil
	})
	return hs
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, src))
		}
	}
	return b.String()
}

// IsConclusion reports whether a heading text is a recognized conclusion
// heading, either exactly or followed by a colon and a subtitle.
func IsConclusion(heading string) bool {
	h := strings.ToLower(strings.TrimSpace(heading))
	for _, c := range ConclusionHeadings {
		if h == c || strings.HasPrefix(h, c+":") {
			return true
		}
	}
	return false
}

// IsConclusionHeading reports whether h is counted as the conclusion of a
// body: a recognized conclusion text at level MaxConclusionLevel or above.
func IsConclusionHeading(h Heading) bool {
	return h.Level <= MaxConclusionLevel && IsConclusion(h.Text)
}

func (v *Validator) checkStructure(body string) error {
	sections, conclusions := 0, 0
	for _, h := range v.Headings(body) {
		switch {
		case IsConclusionHeading(h):
			conclusions++
		case h.Level == MaxConclusionLevel:
			sections++
		}
	}
	if sections == 0 {
		return fmt.Errorf("%w: no section headings", ErrValidation)
	}
	if conclusions != 1 {
		return fmt.Errorf("%w: %d conclusion headings, want 1", ErrValidation, conclusions)
	}
	return nil
}

// CheckProvenance verifies every image reference on doc: all URL fields
// present, https, and inside the approved domain.
func (v *Validator) CheckProvenance(doc types.Document) error {
	for i, ref := range doc.Images() {
		if err := assets.CheckURLs(ref, v.domain); err != nil {
			return fmt.Errorf("%w: image %d: %w", ErrValidation, i, err)
		}
	}
	return nil
}

// RenderHTML converts a markdown body to HTML for previewing.
func (v *Validator) RenderHTML(body string) (string, error) {
	var b strings.Builder
	if err := v.md.Convert([]byte(body), &b); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return b.String(), nil
}
