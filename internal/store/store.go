// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished articles as markdown files with YAML
// frontmatter and reads back the titles already written.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	fence        = "---\n"
	maxSlugRunes = 80
)

// ErrNoFrontmatter reports a markdown file without a leading YAML block.
var ErrNoFrontmatter = errors.New("no frontmatter")

// Markdown stores one article per file in Dir.
type Markdown struct {
	Dir string
	Log *slog.Logger
}

// New returns a Markdown store rooted at dir.
func New(dir string, log *slog.Logger) *Markdown {
	return &Markdown{Dir: dir, Log: logging.OrNop(log)}
}

// ListExistingTitles returns the titles of every article in Dir, sorted.
// A missing directory is an empty corpus. Files that cannot be parsed are
// logged and skipped.
func (m *Markdown) ListExistingTitles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading article directory %s: %w", m.Dir, err)
	}

	var titles []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(m.Dir, e.Name())
		doc, err := Load(path)
		if err != nil {
			logging.OrNop(m.Log).Warn("skipping unreadable article", "path", path, "error", err)
			continue
		}
		if t := strings.TrimSpace(doc.Title); t != "" {
			titles = append(titles, t)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// Save writes doc to Dir as <date>-<slug>.md and returns the path. An
// existing file is never overwritten; a numeric suffix is added instead.
// The file appears atomically.
func (m *Markdown) Save(ctx context.Context, doc types.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating article directory: %w", err)
	}

	base := doc.CreatedDate.UTC().Format("2006-01-02") + "-" + Slug(doc.Title)
	path := filepath.Join(m.Dir, base+".md")
	for n := 2; fileExists(path); n++ {
		path = filepath.Join(m.Dir, fmt.Sprintf("%s-%d.md", base, n))
	}

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	logging.OrNop(m.Log).Debug("saved article", "title", doc.Title, "path", path)
	return path, nil
}

// Encode renders doc as YAML frontmatter followed by the markdown body.
func Encode(doc types.Document) ([]byte, error) {
	meta, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString(fence)
	b.Write(meta)
	b.WriteString(fence)
	b.WriteString("\n")
	b.WriteString(doc.Body)
	return b.Bytes(), nil
}

// Decode parses a file produced by Encode.
func Decode(data []byte) (types.Document, error) {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(s, fence) {
		return types.Document{}, ErrNoFrontmatter
	}
	rest := s[len(fence):]
	end := strings.Index(rest, "\n"+fence)
	if end < 0 {
		return types.Document{}, fmt.Errorf("%w: unterminated block", ErrNoFrontmatter)
	}

	var doc types.Document
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &doc); err != nil {
		return types.Document{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	doc.Body = strings.TrimPrefix(rest[end+1+len(fence):], "\n")
	return doc, nil
}

// Load reads and decodes one article file.
func Load(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Slug returns a lowercase ASCII file name fragment for title.
func Slug(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	n := 0
	for _, r := range strings.ToLower(folded) {
		if n >= maxSlugRunes {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			n++
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
			n++
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "article"
	}
	return slug
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".article-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing article: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
