package search

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	Number         string    `yaml:"number,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Source         string    `yaml:"source,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps result kinds to CSL item types.
var cslTypes = map[types.ResultKind]string{
	types.KindPeerReviewed:    "article-journal",
	types.KindCitationIndexed: "article-journal",
	types.KindOpenAccess:      "article-journal",
	types.KindAcademic:        "article-journal",
	types.KindPreprint:        "article",
	types.KindEncyclopedia:    "entry-encyclopedia",
	types.KindClinicalTrial:   "report",
	types.KindWeb:             "webpage",
}

// FormatCSL writes search results as a CSL-YAML list to w.
func FormatCSL(out types.AggregatedResponse, w io.Writer) error {
	items := make([]CSLItem, len(out.Results))
	for i, r := range out.Results {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a SearchResult to a CSLItem.
func toCSLItem(r types.SearchResult) CSLItem {
	item := CSLItem{
		ID:             cslID(r),
		Type:           "article",
		Title:          r.Title,
		ContainerTitle: r.Venue,
		Abstract:       r.Snippet,
		URL:            r.URL,
		Source:         r.Source.DisplayName(),
	}
	if t, ok := cslTypes[r.Kind]; ok {
		item.Type = t
	}

	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if r.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{r.Year}}}
	}

	switch r.IdentifierType {
	case types.IDDOI:
		item.DOI = r.Identifier
	case types.IDPubMed:
		item.PMID = r.Identifier
	case types.IDClinicalTrial:
		item.Number = r.Identifier
	}
	if item.DOI == "" {
		// Fall back to the secondary DOI, or an identifier that looks like one.
		if t, doi := ClassifyIdentifier(r.DOI); t == types.IDDOI {
			item.DOI = doi
		} else if t, doi := ClassifyIdentifier(r.Identifier); t == types.IDDOI {
			item.DOI = doi
		}
	}
	return item
}

// cslID builds a stable citation key from the source and identifier.
func cslID(r types.SearchResult) string {
	if r.Identifier == "" {
		return string(r.Source)
	}
	return string(r.Source) + ":" + r.Identifier
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
