// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const sampleEuropePMCJSON = `{
  "version": "6.9",
  "hitCount": 2210,
  "resultList": {
    "result": [
      {
        "id": "35012345",
        "source": "MED",
        "pmid": "35012345",
        "pmcid": "PMC8765432",
        "doi": "10.1186/s12886-022-02222-1",
        "title": "Screening for <i>diabetic</i> retinopathy in primary care.",
        "authorString": "Smith J, Doe A, Roe B, Poe C, Loe D, Moe E.",
        "journalTitle": "BMC Ophthalmol",
        "pubYear": "2022",
        "abstractText": "<h4>Background</h4>Screening rates remain low.",
        "isOpenAccess": "Y",
        "citedByCount": 17,
        "pubTypeList": {"pubType": ["research-article", "Journal Article"]}
      },
      {
        "id": "PPR123",
        "source": "PPR",
        "doi": "10.1101/2023.01.01.000001",
        "title": "A preprint without a PMID",
        "pubYear": "2023",
        "isOpenAccess": "N"
      }
    ]
  }
}`

func TestEuropePMCBackendSearch(t *testing.T) {
	up := newFakeUpstream(t, http.StatusOK, "application/json", sampleEuropePMCJSON)
	useBase(t, &europePMCSearchBase, up.URL)

	b := &EuropePMCBackend{Client: up.Client()}
	page, err := b.Search(context.Background(), Query{FreeText: "diabetic retinopathy screening"}, testCfg())
	require.NoError(t, err)

	assert.Equal(t, 2210, page.Total)
	require.Len(t, page.Results, 2)

	r0 := page.Results[0]
	assert.Equal(t, types.SourceEuropePMC, r0.Source)
	assert.Equal(t, "Screening for diabetic retinopathy in primary care", r0.Title)
	assert.Equal(t, []string{"Smith J", "Doe A", "Roe B", "Poe C", "Loe D"}, r0.Authors)
	assert.Equal(t, 2022, r0.Year)
	assert.Equal(t, "BMC Ophthalmol", r0.Venue)
	assert.Equal(t, "35012345", r0.Identifier)
	assert.Equal(t, types.IDPubMed, r0.IdentifierType)
	assert.Equal(t, "10.1186/s12886-022-02222-1", r0.DOI)
	assert.Equal(t, "https://europepmc.org/article/MED/35012345", r0.URL)
	assert.Equal(t, "Background Screening rates remain low.", r0.Snippet)
	require.NotNil(t, r0.CitationCount)
	assert.Equal(t, 17, *r0.CitationCount)
	assert.Equal(t, []string{"open-access", "research-article", "Journal Article"}, r0.Labels)

	r1 := page.Results[1]
	assert.Equal(t, "10.1101/2023.01.01.000001", r1.Identifier)
	assert.Equal(t, types.IDDOI, r1.IdentifierType)
	assert.Nil(t, r1.CitationCount)
}

func TestBuildEuropePMCQuery(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"plain", Query{FreeText: "malaria"}, "malaria"},
		{"from year", Query{FreeText: "malaria", Filters: Filters{YearFrom: 2015}}, "malaria AND PUB_YEAR:[2015 TO 3000]"},
		{"to year", Query{FreeText: "malaria", Filters: Filters{YearTo: 2010}}, "malaria AND PUB_YEAR:[1000 TO 2010]"},
		{"open access", Query{FreeText: "malaria", Filters: Filters{FreeFullText: true}}, "malaria AND OPEN_ACCESS:y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildEuropePMCQuery(tt.q))
		})
	}
}

func TestSplitAuthorString(t *testing.T) {
	assert.Nil(t, splitAuthorString(""))
	assert.Equal(t, []string{"Smith J", "Doe A"}, splitAuthorString("Smith J, Doe A."))
}
