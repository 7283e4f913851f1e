// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries literature and knowledge APIs concurrently and
// returns unified, deduplicated, ranked results.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var (
	// ErrEmptyQuery is returned when the query has no searchable text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoBackends is returned when no source was selected.
	ErrNoBackends = errors.New("no search backends configured")

	// ErrAllSourcesFailed is returned only under Options.RequireSuccess.
	ErrAllSourcesFailed = errors.New("all sources failed")
)

// defaultMaxResults applies when neither the query nor the config sets a cap.
const defaultMaxResults = 20

// Backend searches a single upstream API. Each source implements this
// interface per the Strategy pattern.
type Backend interface {
	Name() types.SourceName
	Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error)
}

// Query holds the search text, result cap, and per-source filters.
type Query struct {
	FreeText   string
	MaxResults int
	Filters    Filters
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == ""
}

// limit resolves the result cap for one upstream call, clamped to ceiling.
func (q Query) limit(cfg types.SearchConfig, ceiling int) int {
	n := q.MaxResults
	if n <= 0 {
		n = cfg.MaxResults
	}
	if n <= 0 {
		n = defaultMaxResults
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}

// Filters carries the optional filters of every source. Each adapter
// translates the ones it can express and ignores the rest.
type Filters struct {
	// DateFrom is a lower publication-date bound.
	DateFrom time.Time

	// YearFrom and YearTo bound the publication year; zero means open.
	YearFrom int
	YearTo   int

	// ArticleTypes restricts PubMed publication types (e.g. "Review").
	ArticleTypes []string
	FreeFullText bool
	Humans       bool
	SortByDate   bool

	// WorkType restricts CrossRef work types (e.g. "journal-article").
	WorkType string

	FieldsOfStudy []string

	// Trial registry filters.
	Status    string
	Phase     string
	StudyType string
}

// fromYear returns the lower year bound from YearFrom or DateFrom.
func (f Filters) fromYear() int {
	if f.YearFrom > 0 {
		return f.YearFrom
	}
	if !f.DateFrom.IsZero() {
		return f.DateFrom.Year()
	}
	return 0
}

// Page is one adapter's normalized results plus the total its upstream reported.
type Page struct {
	Results []types.SearchResult
	Total   int
}

// SourceError is the typed failure every adapter returns.
type SourceError struct {
	Source types.SourceName
	Op     string
	Status int
	Err    error
}

func (e *SourceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Source, e.Op, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Outcome is the settled result of one backend call.
type Outcome struct {
	Source  types.SourceName
	Page    Page
	Err     error
	Elapsed time.Duration
}

// Options controls aggregation behaviour beyond the query itself.
type Options struct {
	// RequireSuccess turns "every source errored" into ErrAllSourcesFailed.
	RequireSuccess bool

	Logger *zap.Logger
}

// Collect runs every backend concurrently and waits for all of them to
// settle. Each call gets its own cfg.Timeout deadline. A failing backend
// never cancels the others. Outcomes are returned in backend order,
// independent of completion order.
func Collect(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, log *zap.Logger) []Outcome {
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := make([]Outcome, len(backends))

	var g errgroup.Group
	for i, b := range backends {
		g.Go(func() error {
			outcomes[i] = run(ctx, b, query, cfg)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn("source failed",
				zap.String("source", string(o.Source)),
				zap.Duration("elapsed", o.Elapsed),
				zap.Error(o.Err))
			continue
		}
		log.Debug("source settled",
			zap.String("source", string(o.Source)),
			zap.Int("results", len(o.Page.Results)),
			zap.Int("upstream_total", o.Page.Total),
			zap.Duration("elapsed", o.Elapsed))
	}
	return outcomes
}

// run performs one backend call under its own deadline. A panic inside an
// adapter is converted into that adapter's failure.
func run(ctx context.Context, b Backend, query Query, cfg types.SearchConfig) (o Outcome) {
	o.Source = b.Name()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			o.Page = Page{}
			o.Err = &SourceError{Source: o.Source, Op: "panic", Err: fmt.Errorf("%v", p)}
		}
		o.Elapsed = time.Since(start)
	}()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	o.Page, o.Err = b.Search(ctx, query, cfg)
	return o
}

// Aggregate fans the query out to all backends, keeps the successful
// results, deduplicates and ranks them, and truncates to the result cap.
// Partial failure is not an error; if every source fails the response is
// empty unless opts.RequireSuccess is set.
func Aggregate(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, opts Options) (types.AggregatedResponse, error) {
	if query.IsEmpty() {
		return types.AggregatedResponse{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return types.AggregatedResponse{}, ErrNoBackends
	}

	outcomes := Collect(ctx, query, backends, cfg, opts.Logger)

	resp := types.AggregatedResponse{
		Results:          []types.SearchResult{},
		SourcesQueried:   make([]types.SourceName, 0, len(outcomes)),
		SourcesSucceeded: []types.SourceName{},
		SourceErrors:     map[types.SourceName]error{},
	}

	var all []types.SearchResult
	var errs []error
	for _, o := range outcomes {
		resp.SourcesQueried = append(resp.SourcesQueried, o.Source)
		if o.Err != nil {
			resp.SourceErrors[o.Source] = o.Err
			errs = append(errs, o.Err)
			continue
		}
		resp.UpstreamTotal += o.Page.Total
		if len(o.Page.Results) > 0 {
			resp.SourcesSucceeded = append(resp.SourcesSucceeded, o.Source)
		}
		all = append(all, o.Page.Results...)
	}

	if opts.RequireSuccess && len(errs) == len(outcomes) {
		return resp, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	deduped, removed := deduplicate(all)
	rank(deduped)

	resp.DuplicatesRemoved = removed
	resp.TotalCount = len(deduped)

	limit := query.limit(cfg, 0)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	if len(deduped) > 0 {
		resp.Results = deduped
	}
	return resp, nil
}

// deduplicate drops every result whose URL or lowercased title was already
// seen. The first occurrence survives.
func deduplicate(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]bool)
	var deduped []types.SearchResult
	removed := 0

	for _, r := range results {
		urlKey := ""
		if r.URL != "" {
			urlKey = "url:" + r.URL
		}
		titleKey := ""
		if t := strings.ToLower(r.Title); t != "" {
			titleKey = "title:" + t
		}

		if (urlKey != "" && seen[urlKey]) || (titleKey != "" && seen[titleKey]) {
			removed++
			continue
		}

		deduped = append(deduped, r)
		if urlKey != "" {
			seen[urlKey] = true
		}
		if titleKey != "" {
			seen[titleKey] = true
		}
	}
	return deduped, removed
}

// DefaultScore returns the relevance assigned to a kind when the adapter
// supplied none.
func DefaultScore(kind types.ResultKind) float64 {
	switch kind {
	case types.KindPreprint:
		return 0.95
	case types.KindEncyclopedia:
		return 0.9
	default:
		return 0.5
	}
}

// rank fills default scores and stable-sorts descending, so equal scores
// keep their source order.
func rank(results []types.SearchResult) {
	for i := range results {
		if results[i].RelevanceScore <= 0 {
			results[i].RelevanceScore = DefaultScore(results[i].Kind)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out types.AggregatedResponse, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range out.Results {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, truncateDisplay(r.Title, 60), formatAuthors(r.Authors), year, r.RelevanceScore, r.Source.DisplayName())
	}

	fmt.Fprintf(w, "\n%d of %d results", len(out.Results), out.TotalCount)
	if out.DuplicatesRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DuplicatesRemoved)
	}
	fmt.Fprintf(w, " from %d/%d sources\n", len(out.SourcesSucceeded), len(out.SourcesQueried))
}

// FormatJSON writes the aggregated response as indented JSON to w.
func FormatJSON(out types.AggregatedResponse, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncateDisplay(authors[0], 20)
	default:
		return truncateDisplay(authors[0], 14) + " et al."
	}
}

// truncateDisplay shortens s for table columns, marking the cut with "...".
func truncateDisplay(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
