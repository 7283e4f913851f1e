// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	arxivMaxResults = 100
	arxivSnippetLen = 300
)

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() types.SourceName { return types.SourceArxiv }

// Search queries arXiv and parses the Atom feed it returns.
func (b *ArxivBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(query.limit(cfg, arxivMaxResults))},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	if query.Filters.SortByDate {
		params.Set("sortBy", "submittedDate")
	}

	resp, err := fetch(ctx, b.Client, b.Limiter, b.Name(), arxivAPIBase+"?"+params.Encode(), cfg, nil)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return Page{}, &SourceError{Source: b.Name(), Op: "decode", Err: err}
	}

	page := Page{Total: extensionInt(feed.Extensions, "opensearch", "totalResults")}
	for _, item := range feed.Items {
		if r, ok := arxivResult(item); ok {
			page.Results = append(page.Results, r)
		}
	}
	if page.Total == 0 {
		page.Total = len(page.Results)
	}
	return page, nil
}

func arxivResult(item *gofeed.Item) (types.SearchResult, bool) {
	id := extractArxivID(item.GUID)
	title := CollapseSpace(item.Title)
	if id == "" || title == "" {
		return types.SearchResult{}, false
	}

	var names []string
	for _, a := range item.Authors {
		if a != nil {
			names = append(names, a.Name)
		}
	}

	r := types.SearchResult{
		Source:         types.SourceArxiv,
		Title:          title,
		Authors:        CapAuthors(names),
		Identifier:     id,
		IdentifierType: types.IDArxiv,
		DOI:            extensionValue(item.Extensions, "arxiv", "doi"),
		Snippet:        Snippet(item.Description, arxivSnippetLen),
		URL:            CanonicalURL(types.IDArxiv, id),
		Kind:           types.KindPreprint,
		Labels:         item.Categories,
	}
	if item.PublishedParsed != nil {
		r.Year = item.PublishedParsed.Year()
	}
	if journal := extensionValue(item.Extensions, "arxiv", "journal_ref"); journal != "" {
		r.Venue = CollapseSpace(journal)
	}
	return r, true
}

// buildArxivQuery requires every term of the free text, plus an optional
// submission-date range.
func buildArxivQuery(q Query) string {
	terms := strings.Fields(q.FreeText)
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		parts = append(parts, "all:"+t)
	}

	if from := q.Filters.fromYear(); from > 0 || q.Filters.YearTo > 0 {
		start := "000001010000"
		if !q.Filters.DateFrom.IsZero() {
			start = q.Filters.DateFrom.Format("20060102") + "0000"
		} else if from > 0 {
			start = fmt.Sprintf("%04d01010000", from)
		}
		end := "299912312359"
		if q.Filters.YearTo > 0 {
			end = fmt.Sprintf("%04d12312359", q.Filters.YearTo)
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", start, end))
	}
	return strings.Join(parts, " AND ")
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// extensionValue reads the first value of a namespaced feed element, e.g.
// <arxiv:doi>.
func extensionValue(exts ext.Extensions, ns, name string) string {
	for _, e := range exts[ns][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// extensionInt is extensionValue parsed as an integer, 0 when absent.
func extensionInt(exts ext.Extensions, ns, name string) int {
	n, err := strconv.Atoi(extensionValue(exts, ns, name))
	if err != nil {
		return 0
	}
	return n
}
