// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testAIConfig() types.AIConfig {
	return types.AIConfig{
		Model:       "test-model",
		APIKey:      "sk-test",
		Temperature: 0.7,
		MaxTokens:   100,
		MaxRetries:  2,
		Referer:     "https://example.org",
		Title:       "Research Assistant",
	}
}

func useEndpoint(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := openRouterURL
	openRouterURL = ts.URL
	t.Cleanup(func() { openRouterURL = old })
}

func TestOpenRouterComplete(t *testing.T) {
	var got completionRequest
	var header http.Header
	useEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Answer"}}]}`)
	})

	c := &OpenRouterClient{Config: testAIConfig()}
	reply, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "Q"}})
	require.NoError(t, err)

	assert.Equal(t, "Answer", reply)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, []Message{{Role: "user", Content: "Q"}}, got.Messages)
	assert.Equal(t, "Bearer sk-test", header.Get("Authorization"))
	assert.Equal(t, "https://example.org", header.Get("HTTP-Referer"))
	assert.Equal(t, "Research Assistant", header.Get("X-Title"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
}

func TestOpenRouterRetriesRateLimit(t *testing.T) {
	var calls int32
	useEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req), "body is replayed on retry")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	})

	c := &OpenRouterClient{Config: testAIConfig()}
	reply, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "Q"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOpenRouterErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusBadGateway, `{"error":"bad gateway"}`, "returned 502"},
		{"malformed", http.StatusOK, `not json`, "decoding completion response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			c := &OpenRouterClient{Config: testAIConfig()}
			_, err := c.Complete(context.Background(), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOpenRouterNoChoices(t *testing.T) {
	useEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})
	c := &OpenRouterClient{Config: testAIConfig()}
	reply, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestOpenRouterMissingKey(t *testing.T) {
	cfg := testAIConfig()
	cfg.APIKey = ""
	c := &OpenRouterClient{Config: cfg}
	_, err := c.Complete(context.Background(), nil)
	assert.Error(t, err)
}
