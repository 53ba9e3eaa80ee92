// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file holds one secret: the filename is the key name and the trimmed file
// contents are the value.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Key file names understood by the pipeline.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
	UnsplashKey  = "unsplash-access-key"
)

// Set maps key names to secret values.
type Set map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// an empty Set. Unreadable files are logged and skipped.
func Load(dir string, log *slog.Logger) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.OrNop(log).Warn("could not read secret", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Or returns explicit when it is set, otherwise the secret stored under key.
func (s Set) Or(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s[key]
}

// Names returns the loaded key names, sorted. Values are never listed.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TextKeyName returns the key file that holds the API key for provider.
func TextKeyName(provider types.TextProvider) string {
	if provider == types.ProviderClaude {
		return AnthropicKey
	}
	return OpenAIKey
}

// Apply fills empty API keys in cfg from the Set.
func (s Set) Apply(cfg types.PipelineConfig) types.PipelineConfig {
	cfg.Text.APIKey = s.Or(TextKeyName(cfg.Text.Provider), cfg.Text.APIKey)
	cfg.Images.AccessKey = s.Or(UnsplashKey, cfg.Images.AccessKey)
	return cfg
}
