// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		wantType types.IdentifierType
		wantNorm string
	}{
		{"2301.07041", types.IDArxiv, "2301.07041"},
		{"arXiv:2301.07041v2", types.IDArxiv, "2301.07041v2"},
		{"10.1145/1234567.1234568", types.IDDOI, "10.1145/1234567.1234568"},
		{"https://doi.org/10.1038/nature12373", types.IDDOI, "10.1038/nature12373"},
		{"doi:10.1038/nature12373", types.IDDOI, "10.1038/nature12373"},
		{"NCT01234567", types.IDClinicalTrial, "NCT01234567"},
		{"nct01234567", types.IDClinicalTrial, "NCT01234567"},
		{"31452104", types.IDPubMed, "31452104"},
		{"PMID: 31452104", types.IDPubMed, "31452104"},
		{"  ", "", ""},
		{"not an id", "", "not an id"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotNorm := ClassifyIdentifier(tt.input)
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if gotNorm != tt.wantNorm {
				t.Errorf("normalized = %q, want %q", gotNorm, tt.wantNorm)
			}
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		idType types.IdentifierType
		id     string
		want   string
	}{
		{types.IDPubMed, "123", "https://pubmed.ncbi.nlm.nih.gov/123/"},
		{types.IDDOI, "10.1/x", "https://doi.org/10.1/x"},
		{types.IDClinicalTrial, "NCT01234567", "https://clinicaltrials.gov/study/NCT01234567"},
		{types.IDArxiv, "2301.07041", "https://arxiv.org/abs/2301.07041"},
		{types.IDSemanticScholar, "abc123", "https://www.semanticscholar.org/paper/abc123"},
		{types.IDWikipedia, "42", ""},
		{types.IDDOI, "", ""},
	}
	for _, tt := range tests {
		if got := CanonicalURL(tt.idType, tt.id); got != tt.want {
			t.Errorf("CanonicalURL(%q, %q) = %q, want %q", tt.idType, tt.id, got, tt.want)
		}
	}
}

func TestIdentifierLabel(t *testing.T) {
	if got := IdentifierLabel(types.IDPubMed); got != "PMID" {
		t.Errorf("IdentifierLabel(pmid) = %q", got)
	}
	if got := IdentifierLabel(types.IDClinicalTrial); got != "NCT" {
		t.Errorf("IdentifierLabel(nct) = %q", got)
	}
	if got := IdentifierLabel(""); got != "" {
		t.Errorf("IdentifierLabel(\"\") = %q, want empty", got)
	}
}
