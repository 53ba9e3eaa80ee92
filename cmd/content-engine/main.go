// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the content-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets secrets.Set

	logger = logging.Nop()
	runID  string
)

// configKeys are bound to CONTENT_ENGINE_* environment variables, with dots
// replaced by underscores (text.api_key -> CONTENT_ENGINE_TEXT_API_KEY).
var configKeys = []string{
	"text.provider", "text.model", "text.api_key", "text.base_url",
	"text.timeout", "text.min_interval", "text.user_agent",
	"images.access_key", "images.approved_domain", "images.timeout",
	"images.min_interval", "images.pacing_delay", "images.cover_candidates",
	"images.inline_per_query",
	"retry.max_attempts", "retry.base_delay", "retry.max_delay", "retry.max_hint_delay",
	"retry.backoff_base",
	"dedup.threshold", "dedup.min_word_length", "dedup.min_shared_words", "dedup.min_coverage",
	"validation.min_words", "validation.target_words",
	"generation.max_count", "generation.output_dir", "generation.default_category",
	"generation.inline_queries",
}

// rootCmd is the base command for the content-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "content-engine",
	Short: "Generate illustrated long-form articles from a business description",
	Long: `content-engine turns a short description of a business into a batch of
long-form markdown articles. Each article is planned from an outline, expanded
section by section, illustrated with vetted stock photos, validated, and
written to the output directory with YAML frontmatter.

Titles that repeat a topic already in the output directory are skipped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		runID = uuid.NewString()
		logger = logging.New(os.Stderr, verbose, runID)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "names", s.Names())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./content-engine.yaml or ~/.config/content-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug output")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of API key files")
	rootCmd.PersistentFlags().String("output-dir", "", "directory articles are read from and written to")

	_ = viper.BindPFlag("generation.output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("content-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "content-engine"))
		}
	}
	setupEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupEnv(v *viper.Viper) {
	v.SetEnvPrefix("CONTENT_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range configKeys {
		_ = v.BindEnv(k)
	}
}

// loadConfig decodes v into a pipeline config, fills API keys from the
// secrets directory, and applies defaults.
func loadConfig(v *viper.Viper, s secrets.Set) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return s.Apply(cfg.WithDefaults()), nil
}

func currentConfig() (types.PipelineConfig, error) {
	return loadConfig(viper.GetViper(), loadedSecrets)
}

func log() *slog.Logger { return logging.OrNop(logger) }

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
