// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// fakeUpstream serves body with status on every request and records the
// requests it received.
type fakeUpstream struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
}

func newFakeUpstream(t *testing.T, status int, contentType, body string) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r)
		f.mu.Unlock()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

// last returns the most recent request.
func (f *fakeUpstream) last(t *testing.T) *http.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("upstream received no requests")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeUpstream) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// useBase points an endpoint var at url for the duration of the test.
func useBase(t *testing.T, base *string, url string) {
	t.Helper()
	old := *base
	*base = url
	t.Cleanup(func() { *base = old })
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

// newExhaustedLimiter returns a limiter whose single token is already spent.
func newExhaustedLimiter() *rate.Limiter {
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	lim.Allow()
	return lim
}
