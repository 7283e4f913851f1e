// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: openrouter-api-key, semantic-scholar-api-key, ncbi-api-key, contact-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Key file names.
const (
	OpenRouterAPIKey      = "openrouter-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	NCBIAPIKey            = "ncbi-api-key"
	ContactEmail          = "contact-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into cfg. Values already set by the config
// file or environment take precedence.
func Apply(cfg *types.Config, secrets map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&cfg.AI.APIKey, OpenRouterAPIKey)
	fill(&cfg.Search.SemanticScholarAPIKey, SemanticScholarAPIKey)
	fill(&cfg.Search.NCBIAPIKey, NCBIAPIKey)
	fill(&cfg.Search.ContactEmail, ContactEmail)
}
