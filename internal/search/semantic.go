// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields     = "paperId,title,authors,year,abstract,citationCount,venue,url,isOpenAccess,fieldsOfStudy,externalIds"
	semanticMaxResults = 100
	semanticSnippetLen = 500
)

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
	APIKey  string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() types.SourceName { return types.SourceSemanticScholar }

// Search queries the Semantic Scholar API and returns normalized results.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"query":  {strings.TrimSpace(query.FreeText)},
		"limit":  {strconv.Itoa(query.limit(cfg, semanticMaxResults))},
		"fields": {semanticFields},
	}
	if yr := buildYearRange(query.Filters.fromYear(), query.Filters.YearTo); yr != "" {
		params.Set("year", yr)
	}
	if len(query.Filters.FieldsOfStudy) > 0 {
		params.Set("fieldsOfStudy", strings.Join(query.Filters.FieldsOfStudy, ","))
	}

	var header http.Header
	if b.APIKey != "" {
		header = http.Header{"x-api-key": {b.APIKey}}
	}

	var sr semanticResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), semanticAPIBase+"?"+params.Encode(), cfg, header, &sr); err != nil {
		return Page{}, err
	}

	page := Page{Total: sr.Total}
	for _, paper := range sr.Data {
		if r, ok := paper.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

func (p semanticPaper) toResult() (types.SearchResult, bool) {
	var names []string
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}

	link := p.URL
	if link == "" {
		link = CanonicalURL(types.IDSemanticScholar, p.PaperID)
	}

	r := types.SearchResult{
		Source:         types.SourceSemanticScholar,
		Title:          CollapseSpace(p.Title),
		Authors:        CapAuthors(names),
		Year:           p.Year,
		Venue:          p.Venue,
		Identifier:     p.PaperID,
		IdentifierType: types.IDSemanticScholar,
		DOI:            p.ExternalIDs.DOI,
		Snippet:        Snippet(p.Abstract, semanticSnippetLen),
		URL:            link,
		Kind:           types.KindAcademic,
		Labels:         p.FieldsOfStudy,
	}
	if p.CitationCount != nil {
		r.CitationCount = intPtr(*p.CitationCount)
	}
	if p.IsOpenAccess {
		r.Kind = types.KindOpenAccess
	}
	if p.PaperID == "" {
		r.IdentifierType = ""
	}
	return r, r.Valid()
}

// buildYearRange returns a Semantic Scholar year filter string such as
// "2020-2023", "2020-", or "-2023".
func buildYearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	CitationCount *int                `json:"citationCount"`
	Venue         string              `json:"venue"`
	URL           string              `json:"url"`
	IsOpenAccess  bool                `json:"isOpenAccess"`
	FieldsOfStudy []string            `json:"fieldsOfStudy"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
