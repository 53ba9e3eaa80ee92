// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/assets"
	"github.com/pdiddy/content-engine/internal/dedup"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/imagesearch"
	"github.com/pdiddy/content-engine/internal/retry"
	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/internal/textgen"
	"github.com/pdiddy/content-engine/internal/throttle"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <instruction>",
	Short: "Generate a batch of articles for a business description",
	Long: `Generate asks the text service for candidate titles, drops titles that
repeat an existing article, and then writes one validated article per
remaining title, one title at a time. A title that fails is reported and the
batch continues with the next one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		batch, err := newBatch(cfg, log(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		summary, err := batch.RunBatch(ctx, generate.Request{Instruction: args[0]})
		printSummary(cmd.OutOrStdout(), summary)
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d of %d articles failed", summary.Failed, summary.Total())
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().Int("max", 0, "maximum number of articles to generate (default 5)")
	generateCmd.Flags().String("provider", "", "text service provider: openai or claude")
	generateCmd.Flags().String("model", "", "text model identifier")

	_ = viper.BindPFlag("generation.max_count", generateCmd.Flags().Lookup("max"))
	_ = viper.BindPFlag("text.provider", generateCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("text.model", generateCmd.Flags().Lookup("model"))

	rootCmd.AddCommand(generateCmd)
}

// newBatch wires every pipeline component from cfg.
func newBatch(cfg types.PipelineConfig, log *slog.Logger, out io.Writer) (*generate.Batch, error) {
	gate := throttle.NewGate(map[throttle.Key]time.Duration{
		throttle.KeyText:   cfg.Text.MinInterval,
		throttle.KeyImages: cfg.Images.MinInterval,
	})

	text, err := textgen.New(cfg.Text, gate, log)
	if err != nil {
		return nil, err
	}
	images, err := imagesearch.NewUnsplashClient(cfg.Images, gate, log)
	if err != nil {
		return nil, err
	}

	gov := retry.New(retry.PolicyFromConfig(cfg.Retry), log)
	resolver := assets.New(images, gov, cfg.Images, log)
	validator := validate.New(cfg.Validation, cfg.Images.ApprovedDomain, log)

	return &generate.Batch{
		Gen:           generate.New(text, gov, resolver, validator, cfg, log),
		Store:         store.New(cfg.Generation.OutputDir, log),
		Dedup:         dedup.New(cfg.Dedup),
		MaxCount:      cfg.Generation.MaxCount,
		Out:           out,
		Log:           log,
		TextRequests:  text,
		ImageRequests: images,
	}, nil
}

func printSummary(w io.Writer, s generate.BatchSummary) {
	fmt.Fprintf(w, "\n%d generated, %d failed, %d duplicates skipped (%d text requests, %d image requests)\n",
		s.Generated, s.Failed, s.Duplicates, s.TextRequests, s.ImageRequests)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s [%s]: %v\n", f.Title, f.Stage, f.Err)
	}
}
