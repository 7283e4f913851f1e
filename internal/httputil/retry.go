// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the source adapters and
// the completion client.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 and 503 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 2

// retryable reports whether an upstream status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) or 503 (Service Unavailable) with exponential backoff. The
// delay starts at RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 the default (2) is used; a negative value disables
// retries. On each retry the response body is drained and closed before
// sleeping. If the context is cancelled during a backoff wait the function
// returns ctx.Err(). After exhausting retries the last response is
// returned so the caller can inspect it. Requests with a body are replayed
// through req.GetBody.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Wait blocks until limiter admits one request. A nil limiter never blocks.
func Wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// NewLimiter returns a token bucket admitting perSecond requests with a
// burst of one. A non-positive rate yields nil (unlimited).
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
