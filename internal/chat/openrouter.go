// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// openRouterURL is the chat completions endpoint. Package-level var for
// test substitution.
var openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 2048

// Completer sends a conversation to a text-completion service and returns
// the assistant's reply. An empty reply with a nil error means the service
// answered without content.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// OpenRouterClient calls an OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	Config types.AIConfig
	Client *http.Client
}

// completionRequest is the request body for the chat completions API.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// completionResponse is the subset of the response the client reads.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts messages and returns the first choice's content.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.Config.APIKey == "" {
		return "", fmt.Errorf("no API key configured")
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.Config.Model,
		Messages:    messages,
		Temperature: c.Config.Temperature,
		MaxTokens:   c.Config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	if c.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)
	if c.Config.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Config.Referer)
	}
	if c.Config.Title != "" {
		req.Header.Set("X-Title", c.Config.Title)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.Config.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", nil
	}
	return cr.Choices[0].Message.Content, nil
}
