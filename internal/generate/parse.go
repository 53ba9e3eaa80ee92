// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

var (
	listMarker  = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)
	headingLine = regexp.MustCompile(`^#{1,6}[ \t]+(.+?)[ \t#]*$`)
)

// extractJSON returns the outermost span of s delimited by open and close,
// which drops code fences and chatter around a JSON payload.
func extractJSON(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseOutline decodes an outline response. Any decoding error or missing
// field is an ErrParse.
func parseOutline(resp string) (types.Outline, error) {
	raw, ok := extractJSON(resp, '{', '}')
	if !ok {
		return types.Outline{}, fmt.Errorf("%w: no JSON object in outline response", ErrParse)
	}
	var o types.Outline
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return types.Outline{}, fmt.Errorf("%w: decoding outline: %v", ErrParse, err)
	}
	if err := o.Validate(); err != nil {
		return types.Outline{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return o, nil
}

// parseMetadata reads tags and category from a metadata response. Missing
// pieces are reported so the caller can fill in defaults.
func parseMetadata(resp string) (types.Metadata, error) {
	raw, ok := extractJSON(resp, '{', '}')
	if !ok || !gjson.Valid(raw) {
		return types.Metadata{}, fmt.Errorf("%w: no JSON object in metadata response", ErrParse)
	}
	var md types.Metadata
	seen := make(map[string]bool)
	for _, t := range gjson.Get(raw, "tags").Array() {
		tag := strings.ToLower(strings.TrimSpace(t.String()))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		md.Tags = append(md.Tags, tag)
	}
	md.Category = strings.TrimSpace(gjson.Get(raw, "category").String())
	if len(md.Tags) == 0 && md.Category == "" {
		return types.Metadata{}, fmt.Errorf("%w: metadata has neither tags nor category", ErrParse)
	}
	return md, nil
}

// parseList reads a list of strings from a response that is either a JSON
// array or a numbered or bulleted list.
func parseList(resp string) ([]string, error) {
	var items []string
	if raw, ok := extractJSON(resp, '[', ']'); ok && gjson.Valid(raw) {
		for _, v := range gjson.Parse(raw).Array() {
			items = appendItem(items, v.String())
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	var marked, plain []string
	for _, line := range strings.Split(resp, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if listMarker.MatchString(line) {
			marked = appendItem(marked, listMarker.ReplaceAllString(line, ""))
			continue
		}
		if !strings.HasSuffix(strings.TrimSpace(line), ":") {
			plain = appendItem(plain, line)
		}
	}
	if len(marked) > 0 {
		return marked, nil
	}
	if len(plain) > 0 {
		return plain, nil
	}
	return nil, fmt.Errorf("%w: no list items in response", ErrParse)
}

func appendItem(items []string, s string) []string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	s = strings.TrimSpace(strings.TrimSuffix(s, ","))
	if s == "" {
		return items
	}
	return append(items, s)
}

// hasConclusionHeading reports whether text carries a heading the validator
// counts as the conclusion.
func hasConclusionHeading(text string) bool {
	for _, h := range validate.Headings(text) {
		if validate.IsConclusionHeading(h) {
			return true
		}
	}
	return false
}

// withConclusionHeading returns the conclusion text with a countable
// conclusion heading. A deeper conclusion heading on the first line is
// promoted to level 2; otherwise "## Conclusion" is prepended.
func withConclusionHeading(text string) string {
	if hasConclusionHeading(text) {
		return text
	}
	first, rest, _ := strings.Cut(strings.TrimLeft(text, "\n"), "\n")
	if m := headingLine.FindStringSubmatch(strings.TrimSpace(first)); m != nil && validate.IsConclusion(m[1]) {
		return strings.TrimRight("## "+m[1]+"\n"+rest, "\n")
	}
	return "## Conclusion\n\n" + text
}

// leadsWithSectionHeading reports whether the first non-blank line of text
// is a level-2 heading.
func leadsWithSectionHeading(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, "## ")
	}
	return false
}
