// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/dedup"
	"github.com/pdiddy/content-engine/internal/store"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <title>",
	Short: "Check whether a title repeats an article in the output directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		existing, err := store.New(cfg.Generation.OutputDir, log()).ListExistingTitles(cmd.Context())
		if err != nil {
			return err
		}

		_, removed := dedup.New(cfg.Dedup).Prune(args, existing)
		if len(removed) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "duplicate of %q\n", removed[0].Matched)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unique among %d existing titles\n", len(existing))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)
}
