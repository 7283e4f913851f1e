// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rag

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

type fakeBackend struct {
	name  types.SourceName
	page  search.Page
	err   error
	calls atomic.Int32
	limit atomic.Int32
}

func (f *fakeBackend) Name() types.SourceName { return f.name }

func (f *fakeBackend) Search(_ context.Context, q search.Query, _ types.SearchConfig) (search.Page, error) {
	f.calls.Add(1)
	f.limit.Store(int32(q.MaxResults))
	return f.page, f.err
}

func cites(n int) *int { return &n }

func testConfig() types.SearchConfig {
	return types.SearchConfig{HTTPConfig: types.HTTPConfig{Timeout: time.Second}}
}

func TestShouldAugment(t *testing.T) {
	tests := []struct {
		name    string
		message string
		enabled bool
		minLen  int
		want    bool
	}{
		{"five chars", "hello", true, 10, false},
		{"exactly threshold", "0123456789", true, 10, false},
		{"over threshold", "01234567890", true, 10, true},
		{"disabled", "a long enough message", false, 10, false},
		{"default threshold", "a long enough message", true, 0, true},
		{"counts runes", "ééééééééééé", true, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAugment(tt.message, tt.enabled, tt.minLen))
		})
	}
}

func TestAssembleEmpty(t *testing.T) {
	c := Assemble([]search.Outcome{
		{Source: types.SourcePubMed},
		{Source: types.SourceWikipedia, Err: errors.New("down")},
	})
	assert.True(t, c.Empty())
	assert.Equal(t, "", c.Text)
	assert.Zero(t, c.FactCount)
	assert.Empty(t, c.Sources)
}

func TestAssembleFormat(t *testing.T) {
	long := strings.Repeat("a", 250)
	outcomes := []search.Outcome{
		{Source: types.SourcePubMed, Page: search.Page{Results: []types.SearchResult{{
			Source:         types.SourcePubMed,
			Title:          "Screening for retinopathy",
			Authors:        []string{"A One", "B Two", "C Three", "D Four"},
			Year:           2020,
			Venue:          "Ophthalmology",
			Identifier:     "123",
			IdentifierType: types.IDPubMed,
			DOI:            "10.1/x",
			Snippet:        long,
		}}}},
		{Source: types.SourceCrossRef, Err: errors.New("timeout")},
		{Source: types.SourceWikipedia, Page: search.Page{Results: []types.SearchResult{{
			Source:  types.SourceWikipedia,
			Title:   "Diabetic retinopathy",
			Snippet: "Short snippet",
		}}}},
		{Source: types.SourceSemanticScholar, Page: search.Page{Results: []types.SearchResult{{
			Source:        types.SourceSemanticScholar,
			Title:         "Deep learning for DR",
			CitationCount: cites(42),
		}}}},
	}

	c := Assemble(outcomes)

	assert.Equal(t, 3, c.FactCount)
	assert.Equal(t, []string{"PubMed", "Wikipedia", "Semantic Scholar"}, c.Sources)

	want := "\n\n---\n## Real-Time Verified Research Context\n" +
		"*Sources: PubMed, Wikipedia, Semantic Scholar*\n" +
		"\n**[PubMed]** Screening for retinopathy" +
		"\n   Authors: A One, B Two, C Three | Year: 2020 | Journal: Ophthalmology | PMID: 123 | DOI: 10.1/x" +
		"\n   > " + strings.Repeat("a", 200) + "...\n" +
		"\n**[Wikipedia]** Diabetic retinopathy" +
		"\n   > Short snippet\n" +
		"\n**[Semantic Scholar]** Deep learning for DR" +
		"\n   Citations: 42\n" +
		"\n*Total verified facts: 3 from 3 sources*\n"
	assert.Equal(t, want, c.Text)
}

func TestAssembleKeepsDuplicates(t *testing.T) {
	same := types.SearchResult{Title: "Same paper", URL: "https://x"}
	c := Assemble([]search.Outcome{
		{Source: types.SourcePubMed, Page: search.Page{Results: []types.SearchResult{same}}},
		{Source: types.SourceEuropePMC, Page: search.Page{Results: []types.SearchResult{same}}},
	})
	assert.Equal(t, 2, c.FactCount)
	assert.Equal(t, 2, strings.Count(c.Text, "Same paper"))
}

func TestAssemblerBuild(t *testing.T) {
	defer goleak.VerifyNone(t)

	pm := &fakeBackend{name: types.SourcePubMed, page: search.Page{Results: []types.SearchResult{
		{Source: types.SourcePubMed, Title: "P1", URL: "https://p/1"},
		{Source: types.SourcePubMed, Title: "P2", URL: "https://p/2"},
	}}}
	wiki := &fakeBackend{name: types.SourceWikipedia, err: errors.New("boom")}

	a := &Assembler{
		Panel:  Panel{{Backend: pm, MaxResults: 8}, {Backend: wiki, MaxResults: 3}},
		Config: testConfig(),
	}
	c := a.Build(context.Background(), "diabetic retinopathy screening")

	assert.Equal(t, 2, c.FactCount)
	assert.Equal(t, []string{"PubMed"}, c.Sources)
	assert.EqualValues(t, 8, pm.limit.Load())
	assert.EqualValues(t, 3, wiki.limit.Load())
	assert.EqualValues(t, 1, wiki.calls.Load())
}

func TestNewPanel(t *testing.T) {
	reg := search.NewRegistry(http.DefaultClient, types.SearchConfig{
		Sources: []types.SourceName{types.SourcePubMed, types.SourceCrossRef},
	})

	p := NewPanel(reg, types.DefaultRAGPanel())
	require.Len(t, p, 2, "disabled panel sources are skipped")
	assert.Equal(t, types.SourcePubMed, p[0].Backend.Name())
	assert.Equal(t, 8, p[0].MaxResults)
	assert.Equal(t, types.SourceCrossRef, p[1].Backend.Name())
	assert.Equal(t, 5, p[1].MaxResults)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short"))
	exact := strings.Repeat("é", excerptLen)
	assert.Equal(t, exact, excerpt(exact))
	assert.Equal(t, strings.Repeat("é", excerptLen)+"...", excerpt(exact+"é"))
}

func TestFactMetadataIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		r    types.SearchResult
		want []string
	}{
		{"pmid", types.SearchResult{Identifier: "123", IdentifierType: types.IDPubMed}, []string{"PMID: 123"}},
		{"trial", types.SearchResult{Identifier: "NCT01234567", IdentifierType: types.IDClinicalTrial}, []string{"NCT: NCT01234567"}},
		{"doi identifier", types.SearchResult{Identifier: "10.1/x", IdentifierType: types.IDDOI}, []string{"DOI: 10.1/x"}},
		{"arxiv not shown", types.SearchResult{Identifier: "2301.07041", IdentifierType: types.IDArxiv}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, factMetadata(tt.r))
		})
	}
}
