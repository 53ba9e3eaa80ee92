// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a stored article",
	Long: `Validate re-runs the structure, image markup and image provenance checks
on a stored article and prints the advisory word-count report. With --html the
cleaned body is rendered to HTML on stdout instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := currentConfig()
		if err != nil {
			return err
		}
		doc, err := store.Load(args[0])
		if err != nil {
			return err
		}

		v := validate.New(cfg.Validation, cfg.Images.ApprovedDomain, log())
		clean, rep, err := v.Validate(doc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if html, _ := cmd.Flags().GetBool("html"); html {
			rendered, err := v.RenderHTML(clean.Body)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		}

		fmt.Fprintf(out, "valid: %s\n", doc.Title)
		fmt.Fprintf(out, "words: %d (minimum %d, target %d)\n", rep.Words, cfg.Validation.MinWords, cfg.Validation.TargetWords)
		fmt.Fprintf(out, "conversational markers: %d\n", rep.ConversationalMarkers)
		if rep.Healed() {
			fmt.Fprintf(out, "would strip: %v\n", rep.Stripped)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("html", false, "render the cleaned body as HTML")
	rootCmd.AddCommand(validateCmd)
}
