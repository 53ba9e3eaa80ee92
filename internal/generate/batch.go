// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdiddy/content-engine/internal/dedup"
	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Store reads the existing corpus and persists finished documents.
type Store interface {
	ListExistingTitles(ctx context.Context) ([]string, error)
	Save(ctx context.Context, doc types.Document) (string, error)
}

// Counter reports how many upstream requests a client has made.
type Counter interface {
	Requests() int64
}

// Request is one batch run.
type Request struct {
	// Instruction describes the business the articles are for. It is passed
	// unmodified into the title and outline prompts.
	Instruction string

	// MaxCount caps how many titles are processed. Zero uses the configured default.
	MaxCount int
}

// Failure records one title that did not produce a stored article.
type Failure struct {
	Title string
	Stage Stage
	Err   error
}

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Generated  int
	Failed     int
	Duplicates int
	Failures   []Failure

	// Saved lists the paths written, in processing order.
	Saved []string

	TextRequests  int64
	ImageRequests int64
}

// Total returns the number of titles processed.
func (s BatchSummary) Total() int {
	return s.Generated + s.Failed
}

// HasFailures reports whether any title failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Batch runs the generator over the titles produced for one instruction.
type Batch struct {
	Gen      *Generator
	Store    Store
	Dedup    dedup.Filter
	MaxCount int

	// Out receives one progress line per title. Nil discards them.
	Out io.Writer
	Log *slog.Logger

	// TextRequests and ImageRequests are optional request counters copied
	// into the summary.
	TextRequests  Counter
	ImageRequests Counter
}

// RunBatch generates candidate titles, drops duplicates, and processes the
// survivors strictly in order. A failed title is recorded and the batch
// moves on; only title generation, corpus listing and cancellation end the
// run early with an error.
func (b *Batch) RunBatch(ctx context.Context, req Request) (summary BatchSummary, err error) {
	w := b.Out
	if w == nil {
		w = io.Discard
	}
	log := logging.OrNop(b.Log)

	defer b.count(&summary)

	limit := req.MaxCount
	if limit <= 0 {
		limit = b.MaxCount
	}
	if limit <= 0 {
		limit = types.PipelineConfig{}.WithDefaults().Generation.MaxCount
	}

	existing, err := b.Store.ListExistingTitles(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing existing titles: %w", err)
	}

	candidates, err := b.Gen.Titles(ctx, req.Instruction, 2*limit)
	if err != nil {
		return summary, err
	}

	titles, removed := b.Dedup.Prune(candidates, existing)
	summary.Duplicates = len(removed)
	for _, r := range removed {
		fmt.Fprintf(w, "duplicate %s (matches %q)\n", r.Candidate, r.Matched)
	}
	if len(titles) > limit {
		titles = titles[:limit]
	}
	log.Info("batch planned", "candidates", len(candidates), "duplicates", len(removed), "titles", len(titles))

	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fmt.Fprintf(w, "generating %s\n", title)

		res, err := b.Gen.Generate(ctx, title, req.Instruction)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			b.fail(w, &summary, title, err)
			continue
		}

		path, err := b.Store.Save(ctx, res.Document)
		if err != nil {
			b.fail(w, &summary, title, &TitleError{Title: title, Stage: StageSave, Err: err})
			continue
		}

		fmt.Fprintf(w, "generated %s -> %s (%d words)\n", title, path, res.Report.Words)
		summary.Generated++
		summary.Saved = append(summary.Saved, path)
	}
	return summary, nil
}

func (b *Batch) fail(w io.Writer, s *BatchSummary, title string, err error) {
	f := Failure{Title: title, Err: err}
	var te *TitleError
	if errors.As(err, &te) {
		f.Stage = te.Stage
		f.Err = te.Err
	}
	fmt.Fprintf(w, "failed  %s: %v\n", title, f.Err)
	logging.OrNop(b.Log).Error("title failed", "title", title, "stage", f.Stage, "error", f.Err)
	s.Failed++
	s.Failures = append(s.Failures, f)
}

func (b *Batch) count(s *BatchSummary) {
	if b.TextRequests != nil {
		s.TextRequests = b.TextRequests.Requests()
	}
	if b.ImageRequests != nil {
		s.ImageRequests = b.ImageRequests.Requests()
	}
}
