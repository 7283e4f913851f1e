// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research assistant:
// normalized search results, aggregated responses, and service configuration.
package types

import "strings"

// SourceName identifies one upstream literature or knowledge API.
type SourceName string

const (
	SourceCrossRef        SourceName = "crossref"
	SourcePubMed          SourceName = "pubmed"
	SourceSemanticScholar SourceName = "semantic_scholar"
	SourceWikipedia       SourceName = "wikipedia"
	SourceClinicalTrials  SourceName = "clinicaltrials"
	SourceWeb             SourceName = "web"
	SourceArxiv           SourceName = "arxiv"
	SourceEuropePMC       SourceName = "europepmc"
	SourceOpenAlex        SourceName = "openalex"
)

var sourceDisplayNames = map[SourceName]string{
	SourceCrossRef:        "CrossRef",
	SourcePubMed:          "PubMed",
	SourceSemanticScholar: "Semantic Scholar",
	SourceWikipedia:       "Wikipedia",
	SourceClinicalTrials:  "ClinicalTrials.gov",
	SourceWeb:             "DuckDuckGo",
	SourceArxiv:           "arXiv",
	SourceEuropePMC:       "Europe PMC",
	SourceOpenAlex:        "OpenAlex",
}

// DisplayName returns the human-readable name used in provenance markers.
func (s SourceName) DisplayName() string {
	if name, ok := sourceDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// AllSources lists every known source in the fixed configured order. This
// order decides which copy survives deduplication.
func AllSources() []SourceName {
	return []SourceName{
		SourcePubMed,
		SourceEuropePMC,
		SourceCrossRef,
		SourceSemanticScholar,
		SourceOpenAlex,
		SourceClinicalTrials,
		SourceArxiv,
		SourceWikipedia,
		SourceWeb,
	}
}

// ParseSourceName maps a name or common alias ("scholar", "trials") to a SourceName.
func ParseSourceName(s string) (SourceName, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crossref":
		return SourceCrossRef, true
	case "pubmed":
		return SourcePubMed, true
	case "semantic_scholar", "semanticscholar", "scholar":
		return SourceSemanticScholar, true
	case "wikipedia", "wiki":
		return SourceWikipedia, true
	case "clinicaltrials", "trials":
		return SourceClinicalTrials, true
	case "web", "duckduckgo":
		return SourceWeb, true
	case "arxiv":
		return SourceArxiv, true
	case "europepmc", "europe_pmc":
		return SourceEuropePMC, true
	case "openalex":
		return SourceOpenAlex, true
	default:
		return "", false
	}
}

// ResultKind is a free-text classification of a result. It only breaks
// ranking ties; it never filters.
type ResultKind string

const (
	KindPeerReviewed    ResultKind = "peer-reviewed"
	KindCitationIndexed ResultKind = "citation-indexed"
	KindAcademic        ResultKind = "academic"
	KindEncyclopedia    ResultKind = "encyclopedia"
	KindPreprint        ResultKind = "preprint"
	KindOpenAccess      ResultKind = "open-access"
	KindClinicalTrial   ResultKind = "clinical-trial"
	KindWeb             ResultKind = "web"
)

// IdentifierType names the scheme of SearchResult.Identifier.
type IdentifierType string

const (
	IDPubMed          IdentifierType = "pmid"
	IDDOI             IdentifierType = "doi"
	IDClinicalTrial   IdentifierType = "nct"
	IDArxiv           IdentifierType = "arxiv"
	IDSemanticScholar IdentifierType = "s2"
	IDOpenAlex        IdentifierType = "openalex"
	IDWikipedia       IdentifierType = "wiki"
)

// SearchResult is the normalized shape every source adapter produces.
type SearchResult struct {
	// Source identifies which adapter produced this result.
	Source SourceName `json:"source" yaml:"source"`

	// Title is required; results without one are discarded by adapters.
	Title string `json:"title" yaml:"title"`

	// Authors holds display-formatted names ("Given Family"), at most five.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, zero when the source gave none.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal, conference, or publisher container title.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitationCount is nil when the source does not report citations.
	CitationCount *int `json:"citationCount,omitempty" yaml:"citation_count,omitempty"`

	// Identifier is the source-specific ID (PMID, DOI, NCT number, arXiv ID...).
	Identifier     string         `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	IdentifierType IdentifierType `json:"identifierType,omitempty" yaml:"identifier_type,omitempty"`

	// DOI is set when the source reports one alongside a different primary identifier.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Snippet is the markup-free abstract or snippet, truncated per source.
	Snippet string `json:"abstractOrSnippet,omitempty" yaml:"abstract_or_snippet,omitempty"`

	// URL is the canonical resolvable link.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Kind ResultKind `json:"kind" yaml:"kind"`

	// Labels carries secondary classifications: publication types, fields of
	// study, trial status and phase.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// RelevanceScore is zero unless the adapter supplies one; the ranker
	// fills in the default for the result's kind.
	RelevanceScore float64 `json:"relevanceScore,omitempty" yaml:"relevance_score,omitempty"`
}

// Valid reports whether r has a title and at least one retrieval path.
func (r SearchResult) Valid() bool {
	if strings.TrimSpace(r.Title) == "" {
		return false
	}
	return r.URL != "" || r.Identifier != ""
}

// AggregatedResponse is the caller-facing output of a fan-out search.
type AggregatedResponse struct {
	Results []SearchResult `json:"results" yaml:"results"`

	// TotalCount is the number of unique results before the MaxResults cap.
	TotalCount int `json:"totalCount" yaml:"total_count"`

	// UpstreamTotal sums the totals each source reported for its own index.
	// Sources are not reconciled against each other.
	UpstreamTotal int `json:"upstreamTotal" yaml:"upstream_total"`

	SourcesQueried   []SourceName `json:"sourcesQueried" yaml:"sources_queried"`
	SourcesSucceeded []SourceName `json:"sourcesSucceeded" yaml:"sources_succeeded"`

	DuplicatesRemoved int `json:"duplicatesRemoved" yaml:"duplicates_removed"`

	// SourceErrors is for server-side logging only and is never serialised.
	SourceErrors map[SourceName]error `json:"-" yaml:"-"`
}
