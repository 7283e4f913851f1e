// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// errEmptyTerms is wrapped in a SourceError when an adapter receives a
// query with no searchable text.
var errEmptyTerms = errors.New("empty query")

// fetch issues one throttled GET with retry on 429/503. Any status other
// than 200 is returned as a SourceError. The caller closes the body.
func fetch(ctx context.Context, client *http.Client, limiter *rate.Limiter, source types.SourceName, reqURL string, cfg types.SearchConfig, header http.Header) (*http.Response, error) {
	if err := httputil.Wait(ctx, limiter); err != nil {
		return nil, &SourceError{Source: source, Op: "throttle", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &SourceError{Source: source, Op: "request", Err: err}
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	for k, vs := range header {
		for i, v := range vs {
			if i == 0 {
				req.Header.Set(k, v)
				continue
			}
			req.Header.Add(k, v)
		}
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, &SourceError{Source: source, Op: "request", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &SourceError{Source: source, Op: "status", Status: resp.StatusCode}
	}
	return resp, nil
}

// fetchJSON is fetch followed by decoding the body into v.
func fetchJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, source types.SourceName, reqURL string, cfg types.SearchConfig, header http.Header, v any) error {
	resp, err := fetch(ctx, client, limiter, source, reqURL, cfg, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &SourceError{Source: source, Op: "decode", Err: err}
	}
	return nil
}

// emptyQueryError reports a query with no searchable text for source.
func emptyQueryError(source types.SourceName) error {
	return &SourceError{Source: source, Op: "query", Err: errEmptyTerms}
}
