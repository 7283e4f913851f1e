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

// Europe PMC endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	europePMCSearchBase  = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"
	europePMCArticleBase = "https://europepmc.org/article/"
)

const (
	europePMCMaxResults = 100
	europePMCSnippetLen = 500
)

// EuropePMCBackend queries the Europe PMC REST search API.
type EuropePMCBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *EuropePMCBackend) Name() types.SourceName { return types.SourceEuropePMC }

// Search queries Europe PMC and returns normalized results.
func (b *EuropePMCBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"query":      {buildEuropePMCQuery(query)},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(query.limit(cfg, europePMCMaxResults))},
		"resultType": {"core"},
	}
	if query.Filters.SortByDate {
		params.Set("sort", "P_PDATE_D desc")
	}

	var er europePMCResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), europePMCSearchBase+"?"+params.Encode(), cfg, nil, &er); err != nil {
		return Page{}, err
	}

	page := Page{Total: er.HitCount}
	for _, rec := range er.ResultList.Result {
		if r, ok := rec.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

// buildEuropePMCQuery appends year and open-access constraints in Europe
// PMC query syntax.
func buildEuropePMCQuery(q Query) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(q.FreeText))
	from, to := q.Filters.fromYear(), q.Filters.YearTo
	if from > 0 || to > 0 {
		if from == 0 {
			from = 1000
		}
		if to == 0 {
			to = 3000
		}
		fmt.Fprintf(&sb, " AND PUB_YEAR:[%d TO %d]", from, to)
	}
	if q.Filters.FreeFullText {
		sb.WriteString(" AND OPEN_ACCESS:y")
	}
	return sb.String()
}

func (rec europePMCRecord) toResult() (types.SearchResult, bool) {
	title := StripTags(rec.Title)
	title = strings.TrimSuffix(title, ".")
	if title == "" {
		return types.SearchResult{}, false
	}

	r := types.SearchResult{
		Source:  types.SourceEuropePMC,
		Title:   title,
		Authors: CapAuthors(splitAuthorString(rec.AuthorString)),
		Year:    ParseYear(rec.PubYear),
		Venue:   CollapseSpace(rec.JournalTitle),
		DOI:     rec.DOI,
		Snippet: Snippet(rec.AbstractText, europePMCSnippetLen),
		Kind:    types.KindOpenAccess,
	}
	if rec.CitedByCount != nil {
		r.CitationCount = intPtr(*rec.CitedByCount)
	}

	switch {
	case rec.PMID != "":
		r.Identifier, r.IdentifierType = rec.PMID, types.IDPubMed
	case rec.DOI != "":
		r.Identifier, r.IdentifierType = rec.DOI, types.IDDOI
	default:
		r.Identifier = rec.ID
	}
	if rec.Source != "" && rec.ID != "" {
		r.URL = europePMCArticleBase + rec.Source + "/" + rec.ID
	} else {
		r.URL = CanonicalURL(r.IdentifierType, r.Identifier)
	}
	if strings.EqualFold(rec.IsOpenAccess, "Y") {
		r.Labels = append(r.Labels, string(types.KindOpenAccess))
	}
	r.Labels = append(r.Labels, rec.PubTypes.PubType...)
	return r, r.Valid()
}

// splitAuthorString turns "Smith J, Doe A." into display names.
func splitAuthorString(s string) []string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Europe PMC JSON structures.
type europePMCResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []europePMCRecord `json:"result"`
	} `json:"resultList"`
}

type europePMCRecord struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	PMID         string `json:"pmid"`
	PMCID        string `json:"pmcid"`
	DOI          string `json:"doi"`
	Title        string `json:"title"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	AbstractText string `json:"abstractText"`
	IsOpenAccess string `json:"isOpenAccess"`
	CitedByCount *int   `json:"citedByCount"`
	PubTypes     struct {
		PubType []string `json:"pubType"`
	} `json:"pubTypeList"`
}
