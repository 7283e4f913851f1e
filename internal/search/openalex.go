// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const (
	openAlexMaxResults = 200
	openAlexSnippetLen = 500
)

// OpenAlexBackend queries the OpenAlex API.
type OpenAlexBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter

	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() types.SourceName { return types.SourceOpenAlex }

// Search queries the OpenAlex API and returns normalized results.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"search":   {strings.TrimSpace(query.FreeText)},
		"per_page": {strconv.Itoa(query.limit(cfg, openAlexMaxResults))},
		"page":     {"1"},
	}
	if f := openAlexFilter(query.Filters); f != "" {
		params.Set("filter", f)
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var oar openAlexResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), openAlexSearchBase+"?"+params.Encode(), cfg, nil, &oar); err != nil {
		return Page{}, err
	}

	page := Page{Total: oar.Meta.Count}
	for _, work := range oar.Results {
		if r, ok := work.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

// openAlexFilter builds the comma-joined filter parameter.
func openAlexFilter(f Filters) string {
	var filters []string
	if !f.DateFrom.IsZero() {
		filters = append(filters, "from_publication_date:"+f.DateFrom.Format("2006-01-02"))
	} else if f.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%04d-01-01", f.YearFrom))
	}
	if f.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%04d-12-31", f.YearTo))
	}
	if f.FreeFullText {
		filters = append(filters, "is_oa:true")
	}
	return strings.Join(filters, ",")
}

func (w openAlexWork) toResult() (types.SearchResult, bool) {
	var names []string
	for _, authorship := range w.Authorships {
		names = append(names, authorship.Author.DisplayName)
	}

	r := types.SearchResult{
		Source:  types.SourceOpenAlex,
		Title:   StripTags(w.Title),
		Authors: CapAuthors(names),
		Year:    w.PublicationYear,
		Venue:   w.PrimaryLocation.Source.DisplayName,
		Snippet: Snippet(reconstructAbstract(w.AbstractInvertedIndex), openAlexSnippetLen),
		Kind:    types.KindPeerReviewed,
		Labels:  nonEmpty(w.Type),
	}
	if w.CitedByCount != nil {
		r.CitationCount = intPtr(*w.CitedByCount)
	}
	if w.OpenAccess.IsOA {
		r.Kind = types.KindOpenAccess
	}

	// OpenAlex is DOI-centric; the work ID is the fallback.
	if doi := BareDOI(w.DOI); doi != "" {
		r.Identifier, r.IdentifierType, r.DOI = doi, types.IDDOI, doi
		r.URL = CanonicalURL(types.IDDOI, doi)
	} else if w.ID != "" {
		r.Identifier, r.IdentifierType = strings.TrimPrefix(w.ID, "https://openalex.org/"), types.IDOpenAlex
		r.URL = w.ID
	}
	return r, r.Valid()
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	Type                  string               `json:"type"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	Source struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
