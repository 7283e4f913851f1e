package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that call upstream APIs.
type HTTPConfig struct {
	// Timeout bounds each upstream call. A source that exceeds it is
	// treated as failed for that request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1 (mailto:someone@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the source adapters and the aggregator.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the default result cap when a request sets none (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MaxRetries bounds retries on HTTP 429/503 per upstream call (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Sources lists the enabled sources in configured order. Empty means all.
	Sources []SourceName `json:"sources" yaml:"sources" mapstructure:"sources"`

	// ContactEmail is sent to CrossRef and OpenAlex for polite-pool access.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty" mapstructure:"contact_email"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// NCBIAPIKey raises the E-utilities limit from 3 to 10 requests per second.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`
}

// PanelSource is one entry of the fixed RAG source panel.
type PanelSource struct {
	Source     SourceName `json:"source" yaml:"source" mapstructure:"source"`
	MaxResults int        `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// RAGConfig holds settings for chat-context augmentation.
type RAGConfig struct {
	// MinMessageLength is the length a message must exceed before
	// augmentation runs (default 10).
	MinMessageLength int `json:"min_message_length" yaml:"min_message_length" mapstructure:"min_message_length"`

	// Panel is the ordered list of sources queried for context.
	Panel []PanelSource `json:"panel" yaml:"panel" mapstructure:"panel"`
}

// DefaultRAGPanel returns the panel used when none is configured.
func DefaultRAGPanel() []PanelSource {
	return []PanelSource{
		{Source: SourcePubMed, MaxResults: 8},
		{Source: SourceWikipedia, MaxResults: 3},
		{Source: SourceSemanticScholar, MaxResults: 8},
		{Source: SourceCrossRef, MaxResults: 5},
		{Source: SourceEuropePMC, MaxResults: 5},
	}
}

// AIConfig holds settings for the text-completion collaborator.
type AIConfig struct {
	// Model is the completion model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxRetries is the number of retry attempts on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Referer and Title identify the calling application to the API.
	Referer string `json:"referer,omitempty" yaml:"referer,omitempty" mapstructure:"referer"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
}

// ServerConfig holds settings for the HTTP boundary.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RequestTimeout is the request-level safety net; adapters still pending
	// when it fires are treated as failed.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// Config groups all component configurations.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`
	RAG    RAGConfig    `json:"rag" yaml:"rag" mapstructure:"rag"`
	AI     AIConfig     `json:"ai" yaml:"ai" mapstructure:"ai"`
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   10 * time.Second,
				UserAgent: "research-assistant/0.1",
			},
			MaxResults: 20,
			MaxRetries: 2,
		},
		RAG: RAGConfig{
			MinMessageLength: 10,
			Panel:            DefaultRAGPanel(),
		},
		AI: AIConfig{
			Model:       "x-ai/grok-4.1-fast:free",
			Temperature: 0.7,
			MaxTokens:   8000,
			MaxRetries:  3,
			Timeout:     90 * time.Second,
		},
	}
}
