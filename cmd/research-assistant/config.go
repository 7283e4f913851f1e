// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// envPrefix scopes environment overrides, e.g.
// RESEARCH_ASSISTANT_SERVER_ADDR or RESEARCH_ASSISTANT_SEARCH_SOURCES.
const envPrefix = "RESEARCH_ASSISTANT"

// Conventional variable names accepted alongside the prefixed ones.
var envAliases = map[string]string{
	"ai.api_key":                      "OPENROUTER_API_KEY",
	"search.semantic_scholar_api_key": "SEMANTIC_SCHOLAR_API_KEY",
	"search.ncbi_api_key":             "NCBI_API_KEY",
	"search.contact_email":            "CONTACT_EMAIL",
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, alias := range envAliases {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias)
	}
	setDefaults(v)
}

// setDefaults registers every key so AutomaticEnv can override keys that
// appear in no config file.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.max_retries", d.Search.MaxRetries)
	v.SetDefault("search.sources", []string{})
	v.SetDefault("search.contact_email", "")
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.ncbi_api_key", "")

	v.SetDefault("rag.min_message_length", d.RAG.MinMessageLength)
	panel := make([]map[string]any, 0, len(d.RAG.Panel))
	for _, p := range d.RAG.Panel {
		panel = append(panel, map[string]any{"source": string(p.Source), "max_results": p.MaxResults})
	}
	v.SetDefault("rag.panel", panel)

	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.referer", d.AI.Referer)
	v.SetDefault("ai.title", d.AI.Title)
}

// loadConfig decodes v into a Config and rejects unknown source names.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	sources, err := parseSources(sourceStrings(c.Search.Sources))
	if err != nil {
		return types.Config{}, fmt.Errorf("search.sources: %w", err)
	}
	c.Search.Sources = sources

	for i, p := range c.RAG.Panel {
		name, ok := types.ParseSourceName(string(p.Source))
		if !ok {
			return types.Config{}, fmt.Errorf("rag.panel[%d]: unknown source %q", i, p.Source)
		}
		c.RAG.Panel[i].Source = name
	}
	return c, nil
}

// parseSources maps user-supplied names to sources, dropping blanks.
func parseSources(names []string) ([]types.SourceName, error) {
	var out []types.SourceName
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s, ok := types.ParseSourceName(n)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

func sourceStrings(s []types.SourceName) []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = string(n)
	}
	return out
}

func secretNames(s map[string]string) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
