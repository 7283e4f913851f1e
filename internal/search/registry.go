// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// Upstream request rates in requests per second. Zero means unthrottled.
const (
	ncbiRate          = 3
	ncbiRateWithKey   = 10
	semanticRate      = 1
	semanticRateKeyed = 10
	arxivRate         = 1
)

// Registry holds one long-lived backend per enabled source, so rate
// limiters are shared by every request in the process.
type Registry struct {
	order    []types.SourceName
	backends map[types.SourceName]Backend
}

// NewRegistry constructs the backends enabled by cfg.Sources (all sources
// when empty) in the fixed configured order.
func NewRegistry(client *http.Client, cfg types.SearchConfig) *Registry {
	enabled := make(map[types.SourceName]bool)
	for _, s := range cfg.Sources {
		enabled[s] = true
	}

	r := &Registry{backends: make(map[types.SourceName]Backend)}
	for _, name := range types.AllSources() {
		if len(enabled) > 0 && !enabled[name] {
			continue
		}
		r.order = append(r.order, name)
		r.backends[name] = newBackend(name, client, cfg)
	}
	return r
}

// RegistryOf builds a registry over already-constructed backends, in the
// order given.
func RegistryOf(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[types.SourceName]Backend, len(backends))}
	for _, b := range backends {
		if _, dup := r.backends[b.Name()]; dup {
			continue
		}
		r.order = append(r.order, b.Name())
		r.backends[b.Name()] = b
	}
	return r
}

func newBackend(name types.SourceName, client *http.Client, cfg types.SearchConfig) Backend {
	switch name {
	case types.SourceCrossRef:
		return &CrossRefBackend{Client: client, Email: cfg.ContactEmail}
	case types.SourcePubMed:
		perSecond := float64(ncbiRate)
		if cfg.NCBIAPIKey != "" {
			perSecond = ncbiRateWithKey
		}
		return &PubMedBackend{Client: client, Limiter: httputil.NewLimiter(perSecond), APIKey: cfg.NCBIAPIKey}
	case types.SourceSemanticScholar:
		perSecond := float64(semanticRate)
		if cfg.SemanticScholarAPIKey != "" {
			perSecond = semanticRateKeyed
		}
		return &SemanticScholarBackend{Client: client, Limiter: httputil.NewLimiter(perSecond), APIKey: cfg.SemanticScholarAPIKey}
	case types.SourceWikipedia:
		return &WikipediaBackend{Client: client}
	case types.SourceClinicalTrials:
		return &ClinicalTrialsBackend{Client: client}
	case types.SourceWeb:
		return &WebBackend{Client: client}
	case types.SourceArxiv:
		return &ArxivBackend{Client: client, Limiter: httputil.NewLimiter(arxivRate)}
	case types.SourceEuropePMC:
		return &EuropePMCBackend{Client: client}
	case types.SourceOpenAlex:
		return &OpenAlexBackend{Client: client, Email: cfg.ContactEmail}
	default:
		panic(fmt.Sprintf("search: no backend for source %q", name))
	}
}

// Sources returns the enabled sources in configured order.
func (r *Registry) Sources() []types.SourceName {
	return append([]types.SourceName(nil), r.order...)
}

// Get returns the backend for one source.
func (r *Registry) Get(name types.SourceName) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Select returns the backends for names in configured order, regardless of
// the order names were given in. An empty list selects every enabled source.
func (r *Registry) Select(names []types.SourceName) ([]Backend, error) {
	want := make(map[types.SourceName]bool, len(names))
	for _, n := range names {
		if _, ok := r.backends[n]; !ok {
			return nil, fmt.Errorf("source %q is not enabled", n)
		}
		want[n] = true
	}

	var out []Backend
	for _, name := range r.order {
		if len(want) == 0 || want[name] {
			out = append(out, r.backends[name])
		}
	}
	return out, nil
}

// technicalPattern marks queries that warrant a preprint search during deep
// web search.
var technicalPattern = regexp.MustCompile(`(?i)\b(ai|machine learning|research)\b`)

// LooksTechnical reports whether a deep web search should include arXiv.
func LooksTechnical(text string) bool {
	return technicalPattern.MatchString(text)
}

// Web returns the deep web search set: the general web index always, plus
// the encyclopedia when deep is set, plus the preprint repository when deep
// is set and the query looks technical. Disabled sources are skipped.
func (r *Registry) Web(q Query, deep bool) []Backend {
	var out []Backend
	add := func(name types.SourceName) {
		if b, ok := r.backends[name]; ok {
			out = append(out, b)
		}
	}
	add(types.SourceWeb)
	if deep {
		add(types.SourceWikipedia)
		if LooksTechnical(q.FreeText) {
			add(types.SourceArxiv)
		}
	}
	return out
}

// Limit wraps b so every call requests at most n results, overriding the
// query's own cap.
func Limit(b Backend, n int) Backend {
	return limited{Backend: b, n: n}
}

type limited struct {
	Backend
	n int
}

func (l limited) Search(ctx context.Context, q Query, cfg types.SearchConfig) (Page, error) {
	q.MaxResults = l.n
	return l.Backend.Search(ctx, q, cfg)
}
