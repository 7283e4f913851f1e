// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Base URLs for canonical result links. Declared as vars so tests can
// compare against them without hard-coding hosts.
var (
	pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"
	doiBase           = "https://doi.org/"
	trialStudyBase    = "https://clinicaltrials.gov/study/"
	arxivAbsBase      = "https://arxiv.org/abs/"
	s2PaperBase       = "https://www.semanticscholar.org/paper/"
)

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// nctPattern matches ClinicalTrials.gov registry numbers: "NCT01234567".
var nctPattern = regexp.MustCompile(`^(?i:NCT)(\d{8})$`)

// pmidPattern matches bare PubMed IDs.
var pmidPattern = regexp.MustCompile(`^(?:PMID:\s*)?(\d{1,9})$`)

// ClassifyIdentifier determines the scheme of a scholarly identifier and
// returns its normalized form. DOI resolver URLs are reduced to the bare
// DOI. Unrecognised input yields an empty type.
func ClassifyIdentifier(id string) (types.IdentifierType, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ""
	}

	if m := arxivPattern.FindStringSubmatch(id); m != nil {
		return types.IDArxiv, m[1]
	}

	if bare := BareDOI(id); doiPattern.MatchString(bare) {
		return types.IDDOI, bare
	}

	if m := nctPattern.FindStringSubmatch(id); m != nil {
		return types.IDClinicalTrial, "NCT" + m[1]
	}

	if m := pmidPattern.FindStringSubmatch(id); m != nil {
		return types.IDPubMed, m[1]
	}

	return "", id
}

// BareDOI strips resolver prefixes ("https://doi.org/", "doi:") from a DOI.
func BareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}

// CanonicalURL returns the resolvable link for an identifier, or "" when the
// scheme has no canonical landing page.
func CanonicalURL(idType types.IdentifierType, id string) string {
	if id == "" {
		return ""
	}
	switch idType {
	case types.IDPubMed:
		return pubmedArticleBase + id + "/"
	case types.IDDOI:
		return doiBase + id
	case types.IDClinicalTrial:
		return trialStudyBase + id
	case types.IDArxiv:
		return arxivAbsBase + id
	case types.IDSemanticScholar:
		return s2PaperBase + url.PathEscape(id)
	default:
		return ""
	}
}

// IdentifierLabel is the short prefix shown before an identifier in
// citations ("PMID", "DOI", "NCT").
func IdentifierLabel(idType types.IdentifierType) string {
	switch idType {
	case types.IDPubMed:
		return "PMID"
	case types.IDDOI:
		return "DOI"
	case types.IDClinicalTrial:
		return "NCT"
	case types.IDArxiv:
		return "arXiv"
	case types.IDSemanticScholar:
		return "S2"
	case types.IDOpenAlex:
		return "OpenAlex"
	case types.IDWikipedia:
		return "Wikipedia"
	default:
		return ""
	}
}
