// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil", nil, ""},
		{"empty", map[string][]int{}, ""},
		{
			"ordered by position",
			map[string][]int{"is": {1}, "Attention": {0}, "all": {2}, "you": {3}, "need": {4}},
			"Attention is all you need",
		},
		{
			"repeated word",
			map[string][]int{"the": {0, 2}, "cat": {1}, "mat": {3}},
			"the cat the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- OpenAlexBackend.Search ---

const sampleOpenAlexJSON = `{
  "meta": {"count": 9321, "per_page": 2, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2963403868",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "type": "article",
      "publication_year": 2017,
      "cited_by_count": 104000,
      "authorships": [
        {"author": {"id": "A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "A2", "display_name": "Noam Shazeer"}}
      ],
      "abstract_inverted_index": {"We": [0], "propose": [1], "attention": [2]},
      "open_access": {"is_oa": true, "oa_status": "green", "oa_url": ""},
      "primary_location": {"source": {"display_name": "Neural Information Processing Systems"}}
    },
    {
      "id": "https://openalex.org/W3210812345",
      "title": "BERT",
      "doi": null,
      "publication_year": 2018,
      "authorships": [{"author": {"id": "A3", "display_name": "Jacob Devlin"}}],
      "abstract_inverted_index": null,
      "open_access": {"is_oa": false},
      "primary_location": null
    }
  ]
}`

func TestOpenAlexBackendSearch(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, "application/json", sampleOpenAlexJSON)
	useBase(t, &openAlexSearchBase, up.URL)

	b := &OpenAlexBackend{Client: up.Client(), Email: "test@example.com"}
	page, err := b.Search(context.Background(), Query{FreeText: "attention"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 9321 {
		t.Errorf("Total = %d, want 9321", page.Total)
	}
	if len(page.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(page.Results))
	}

	r0 := page.Results[0]
	// DOI should be stripped of https://doi.org/ prefix.
	if r0.Identifier != "10.5555/3295222.3295349" || r0.IdentifierType != types.IDDOI {
		t.Errorf("Identifier = %q (%q), want bare DOI", r0.Identifier, r0.IdentifierType)
	}
	if r0.URL != "https://doi.org/10.5555/3295222.3295349" {
		t.Errorf("URL = %q", r0.URL)
	}
	if r0.Source != types.SourceOpenAlex {
		t.Errorf("Source = %q", r0.Source)
	}
	if len(r0.Authors) != 2 || r0.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", r0.Authors)
	}
	if r0.Year != 2017 || r0.Venue != "Neural Information Processing Systems" {
		t.Errorf("Year/Venue = %d/%q", r0.Year, r0.Venue)
	}
	if r0.CitationCount == nil || *r0.CitationCount != 104000 {
		t.Errorf("CitationCount = %v", r0.CitationCount)
	}
	if r0.Snippet != "We propose attention" {
		t.Errorf("Snippet = %q, want reconstructed abstract", r0.Snippet)
	}
	if r0.Kind != types.KindOpenAccess {
		t.Errorf("Kind = %q, want open-access", r0.Kind)
	}

	// Second result has no DOI, so the OpenAlex work ID is used.
	r1 := page.Results[1]
	if r1.Identifier != "W3210812345" || r1.IdentifierType != types.IDOpenAlex {
		t.Errorf("Identifier = %q (%q), want OpenAlex work ID", r1.Identifier, r1.IdentifierType)
	}
	if r1.URL != "https://openalex.org/W3210812345" {
		t.Errorf("URL = %q", r1.URL)
	}
	if r1.Snippet != "" || r1.Venue != "" || r1.CitationCount != nil {
		t.Errorf("absent fields should stay empty: %+v", r1)
	}
	if r1.Kind != types.KindPeerReviewed {
		t.Errorf("Kind = %q", r1.Kind)
	}

	if got := up.last(t).URL.Query().Get("mailto"); got != "test@example.com" {
		t.Errorf("mailto = %q", got)
	}
}

func TestOpenAlexBackendStripsAbstractMarkup(t *testing.T) {
	const body = `{"meta":{"count":1},"results":[{
	  "id": "https://openalex.org/W1",
	  "title": "T cell study",
	  "abstract_inverted_index": {"<jats:p>We": [0], "study": [1], "<i>T</i>": [2], "cells.</jats:p>": [3]}
	}]}`
	up := newFakeUpstream(t, http.StatusOK, "application/json", body)
	useBase(t, &openAlexSearchBase, up.URL)

	b := &OpenAlexBackend{Client: up.Client()}
	page, err := b.Search(context.Background(), Query{FreeText: "t cells"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(page.Results))
	}
	s := page.Results[0].Snippet
	if strings.Contains(s, "<") || strings.Contains(s, ">") {
		t.Errorf("Snippet = %q, want no markup", s)
	}
	if s != "We study T cells." {
		t.Errorf("Snippet = %q, want %q", s, "We study T cells.")
	}
}

func TestOpenAlexFilter(t *testing.T) {
	tests := []struct {
		name string
		f    Filters
		want string
	}{
		{"none", Filters{}, ""},
		{"date from", Filters{DateFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, "from_publication_date:2020-01-01"},
		{"year range", Filters{YearFrom: 2018, YearTo: 2020}, "from_publication_date:2018-01-01,to_publication_date:2020-12-31"},
		{"open access", Filters{FreeFullText: true}, "is_oa:true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openAlexFilter(tt.f); got != tt.want {
				t.Errorf("openAlexFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenAlexBackendHTTPNon200(t *testing.T) {
	up := newFakeUpstream(t, http.StatusForbidden, "application/json", `{"error":"forbidden"}`)
	useBase(t, &openAlexSearchBase, up.URL)

	b := &OpenAlexBackend{Client: up.Client()}
	_, err := b.Search(context.Background(), Query{FreeText: "test"}, testCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 403") {
		t.Errorf("error = %v, want HTTP 403", err)
	}
}

func TestOpenAlexBackendEmptyQuery(t *testing.T) {
	b := &OpenAlexBackend{}
	if _, err := b.Search(context.Background(), Query{}, testCfg()); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestOpenAlexBackendEmptyResults(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, "application/json", `{"meta":{"count":0},"results":[]}`)
	useBase(t, &openAlexSearchBase, up.URL)

	b := &OpenAlexBackend{Client: up.Client()}
	page, err := b.Search(context.Background(), Query{FreeText: "zzz"}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(page.Results))
	}
}
