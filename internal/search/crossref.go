// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// crossrefSearchBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefSearchBase = "https://api.crossref.org/works"

const (
	crossrefMaxRows    = 100
	crossrefSnippetLen = 500
	crossrefSelect     = "DOI,title,author,container-title,publisher,published,published-print,published-online,type,is-referenced-by-count,URL,abstract"
)

// CrossRefBackend queries the CrossRef works API.
type CrossRefBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter

	// Email joins the polite pool via the mailto parameter and User-Agent.
	Email string
}

// Name returns the backend identifier.
func (b *CrossRefBackend) Name() types.SourceName { return types.SourceCrossRef }

// Search queries CrossRef and returns normalized results.
func (b *CrossRefBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"query":  {strings.TrimSpace(query.FreeText)},
		"rows":   {strconv.Itoa(query.limit(cfg, crossrefMaxRows))},
		"select": {crossrefSelect},
	}
	if f := crossrefFilter(query.Filters); f != "" {
		params.Set("filter", f)
	}

	var header http.Header
	if b.Email != "" {
		params.Set("mailto", b.Email)
		header = http.Header{"User-Agent": {fmt.Sprintf("%s (mailto:%s)", cfg.UserAgent, b.Email)}}
	}

	var cr crossrefResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), crossrefSearchBase+"?"+params.Encode(), cfg, header, &cr); err != nil {
		return Page{}, err
	}

	page := Page{Total: cr.Message.TotalResults}
	for _, item := range cr.Message.Items {
		if r, ok := item.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

// crossrefFilter builds the comma-joined filter parameter.
func crossrefFilter(f Filters) string {
	var parts []string
	if f.WorkType != "" {
		parts = append(parts, "type:"+f.WorkType)
	}
	if !f.DateFrom.IsZero() {
		parts = append(parts, "from-pub-date:"+f.DateFrom.Format("2006-01-02"))
	} else if f.YearFrom > 0 {
		parts = append(parts, "from-pub-date:"+strconv.Itoa(f.YearFrom))
	}
	if f.YearTo > 0 {
		parts = append(parts, "until-pub-date:"+strconv.Itoa(f.YearTo))
	}
	return strings.Join(parts, ",")
}

func (w crossrefWork) toResult() (types.SearchResult, bool) {
	title := StripTags(w.Title.first())
	if title == "" {
		return types.SearchResult{}, false
	}

	var names []string
	for _, a := range w.Author {
		if a.Name != "" {
			names = append(names, a.Name)
			continue
		}
		names = append(names, JoinName(a.Given, a.Family))
	}

	doi := BareDOI(w.DOI)
	link := w.URL
	if link == "" {
		link = CanonicalURL(types.IDDOI, doi)
	}

	venue := w.ContainerTitle.first()
	if venue == "" {
		venue = w.Publisher
	}

	r := types.SearchResult{
		Source:     types.SourceCrossRef,
		Title:      title,
		Authors:    CapAuthors(names),
		Year:       w.year(),
		Venue:      StripTags(venue),
		Snippet:    Snippet(w.Abstract, crossrefSnippetLen),
		URL:        link,
		Kind:       types.KindCitationIndexed,
		Labels:     nonEmpty(w.Type),
		DOI:        doi,
		Identifier: doi,
	}
	if doi != "" {
		r.IdentifierType = types.IDDOI
	}
	if w.ReferencedBy != nil {
		r.CitationCount = intPtr(*w.ReferencedBy)
	}
	return r, r.Valid()
}

// year takes the first date-parts year of published, then published-print,
// then published-online.
func (w crossrefWork) year() int {
	for _, d := range []crossrefDate{w.Published, w.PublishedPrint, w.PublishedOnline} {
		if y := d.year(); y > 0 {
			return y
		}
	}
	return 0
}

// nonEmpty returns the non-blank arguments as a slice, or nil.
func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI             string           `json:"DOI"`
	Title           stringList       `json:"title"`
	Author          []crossrefAuthor `json:"author"`
	ContainerTitle  stringList       `json:"container-title"`
	Publisher       string           `json:"publisher"`
	Published       crossrefDate     `json:"published"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
	Type            string           `json:"type"`
	ReferencedBy    *int             `json:"is-referenced-by-count"`
	URL             string           `json:"URL"`
	Abstract        string           `json:"abstract"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// stringList accepts either a JSON string or an array of strings. Any other
// shape decodes as empty rather than failing the whole response.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return nil
		}
		*s = stringList{one}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		var out stringList
		for _, r := range raw {
			var v string
			if json.Unmarshal(r, &v) == nil {
				out = append(out, v)
			}
		}
		*s = out
	}
	return nil
}

func (s stringList) first() string {
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
