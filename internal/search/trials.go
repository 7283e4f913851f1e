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

// trialsAPIBase is the ClinicalTrials.gov v2 studies endpoint. Declared as
// a var so tests can substitute an httptest server.
var trialsAPIBase = "https://clinicaltrials.gov/api/v2/studies"

const (
	trialsMaxResults    = 100
	trialsSnippetLen    = 400
	trialsMaxConditions = 5
)

// ClinicalTrialsBackend queries the ClinicalTrials.gov registry.
type ClinicalTrialsBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *ClinicalTrialsBackend) Name() types.SourceName { return types.SourceClinicalTrials }

// Search queries the registry and returns normalized results.
func (b *ClinicalTrialsBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"query.term": {strings.TrimSpace(query.FreeText)},
		"pageSize":   {strconv.Itoa(query.limit(cfg, trialsMaxResults))},
		"format":     {"json"},
		"countTotal": {"true"},
	}
	f := query.Filters
	if f.Status != "" {
		params.Set("filter.overallStatus", strings.ToUpper(f.Status))
	}
	if adv := trialsAdvancedFilter(f); adv != "" {
		params.Set("filter.advanced", adv)
	}

	var tr trialsResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), trialsAPIBase+"?"+params.Encode(), cfg, nil, &tr); err != nil {
		return Page{}, err
	}

	page := Page{Total: tr.TotalCount}
	if page.Total == 0 {
		page.Total = len(tr.Studies)
	}
	for _, s := range tr.Studies {
		if r, ok := s.Protocol.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

// trialsAdvancedFilter expresses phase and study type in the registry's
// Essie syntax.
func trialsAdvancedFilter(f Filters) string {
	var parts []string
	if f.Phase != "" {
		parts = append(parts, fmt.Sprintf("AREA[Phase]%s", strings.ToUpper(f.Phase)))
	}
	if f.StudyType != "" {
		parts = append(parts, fmt.Sprintf("AREA[StudyType]%s", strings.ToUpper(f.StudyType)))
	}
	return strings.Join(parts, " AND ")
}

func (p trialProtocol) toResult() (types.SearchResult, bool) {
	nct := strings.TrimSpace(p.Identification.NCTID)
	title := CollapseSpace(p.Identification.BriefTitle)
	if title == "" {
		title = CollapseSpace(p.Identification.OfficialTitle)
	}
	if nct == "" || title == "" {
		return types.SearchResult{}, false
	}

	labels := nonEmpty(p.Status.OverallStatus, p.Design.StudyType)
	if len(p.Design.Phases) > 0 {
		labels = append(labels, strings.Join(p.Design.Phases, "/"))
	}
	for i, c := range p.Conditions.Conditions {
		if i == trialsMaxConditions {
			break
		}
		labels = append(labels, c)
	}

	year := ParseYear(p.Status.StartDate.Date)
	if year == 0 {
		year = ParseYear(p.Status.CompletionDate.Date)
	}

	return types.SearchResult{
		Source:         types.SourceClinicalTrials,
		Title:          title,
		Year:           year,
		Venue:          p.Sponsors.LeadSponsor.Name,
		Identifier:     nct,
		IdentifierType: types.IDClinicalTrial,
		Snippet:        Snippet(p.Description.BriefSummary, trialsSnippetLen),
		URL:            CanonicalURL(types.IDClinicalTrial, nct),
		Kind:           types.KindClinicalTrial,
		Labels:         labels,
	}, true
}

// ClinicalTrials.gov v2 JSON structures.
type trialsResponse struct {
	TotalCount int `json:"totalCount"`
	Studies    []struct {
		Protocol trialProtocol `json:"protocolSection"`
	} `json:"studies"`
}

type trialProtocol struct {
	Identification struct {
		NCTID         string `json:"nctId"`
		BriefTitle    string `json:"briefTitle"`
		OfficialTitle string `json:"officialTitle"`
	} `json:"identificationModule"`
	Status struct {
		OverallStatus  string    `json:"overallStatus"`
		StartDate      trialDate `json:"startDateStruct"`
		CompletionDate trialDate `json:"completionDateStruct"`
	} `json:"statusModule"`
	Design struct {
		StudyType string   `json:"studyType"`
		Phases    []string `json:"phases"`
	} `json:"designModule"`
	Sponsors struct {
		LeadSponsor struct {
			Name string `json:"name"`
		} `json:"leadSponsor"`
	} `json:"sponsorCollaboratorsModule"`
	Conditions struct {
		Conditions []string `json:"conditions"`
	} `json:"conditionsModule"`
	Description struct {
		BriefSummary string `json:"briefSummary"`
	} `json:"descriptionModule"`
}

type trialDate struct {
	Date string `json:"date"`
}
