// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

const (
	pubmedMaxResults = 200
	pubmedSnippetLen = 500
)

// PubMedBackend queries PubMed through NCBI E-utilities. A search is two
// sequential calls: esearch for matching PMIDs, then efetch for the records.
type PubMedBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter

	// APIKey raises the NCBI rate limit.
	APIKey string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() types.SourceName { return types.SourcePubMed }

// Search finds matching PMIDs and fetches their records.
func (b *PubMedBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	ids, total, err := b.esearch(ctx, query, cfg)
	if err != nil {
		return Page{}, err
	}
	if len(ids) == 0 {
		return Page{Total: total}, nil
	}

	articles, err := b.efetch(ctx, ids, cfg)
	if err != nil {
		return Page{}, err
	}

	page := Page{Total: total}
	for _, a := range articles {
		if r, ok := a.toResult(); ok {
			page.Results = append(page.Results, r)
		}
	}
	return page, nil
}

func (b *PubMedBackend) esearch(ctx context.Context, query Query, cfg types.SearchConfig) ([]string, int, error) {
	sort := "relevance"
	if query.Filters.SortByDate {
		sort = "pub_date"
	}
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {BuildPubMedTerm(query)},
		"retmax":  {strconv.Itoa(query.limit(cfg, pubmedMaxResults))},
		"sort":    {sort},
		"retmode": {"json"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	var sr pubmedSearchResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), pubmedSearchBase+"?"+params.Encode(), cfg, nil, &sr); err != nil {
		return nil, 0, err
	}
	total, _ := strconv.Atoi(sr.Result.Count)
	return sr.Result.IDList, total, nil
}

func (b *PubMedBackend) efetch(ctx context.Context, ids []string, cfg types.SearchConfig) ([]pubmedArticle, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	resp, err := fetch(ctx, b.Client, b.Limiter, b.Name(), pubmedFetchBase+"?"+params.Encode(), cfg, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	articles, err := decodePubMedArticles(resp.Body)
	if err != nil {
		return nil, &SourceError{Source: b.Name(), Op: "decode", Err: err}
	}
	return articles, nil
}

// BuildPubMedTerm appends the query's filters to the free text in
// E-utilities search syntax.
func BuildPubMedTerm(query Query) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(query.FreeText))

	f := query.Filters
	switch {
	case !f.DateFrom.IsZero():
		fmt.Fprintf(&sb, ` AND ("%s"[Date - Publication] : "3000"[Date - Publication])`, f.DateFrom.Format("2006/01/02"))
	case f.YearFrom > 0:
		fmt.Fprintf(&sb, ` AND ("%d"[Date - Publication] : "3000"[Date - Publication])`, f.YearFrom)
	}

	if len(f.ArticleTypes) > 0 {
		var clauses []string
		for _, t := range f.ArticleTypes {
			if t = strings.TrimSpace(t); t != "" {
				clauses = append(clauses, fmt.Sprintf(`"%s"[Publication Type]`, t))
			}
		}
		if len(clauses) > 0 {
			fmt.Fprintf(&sb, " AND (%s)", strings.Join(clauses, " OR "))
		}
	}
	if f.FreeFullText {
		sb.WriteString(" AND free full text[filter]")
	}
	if f.Humans {
		sb.WriteString(" AND humans[MeSH Terms]")
	}
	return sb.String()
}

// decodePubMedArticles streams a PubmedArticleSet, decoding one article at a
// time.
func decodePubMedArticles(r io.Reader) ([]pubmedArticle, error) {
	dec := xml.NewDecoder(r)
	var articles []pubmedArticle
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return articles, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "PubmedArticle" {
			continue
		}
		var a pubmedArticle
		if err := dec.DecodeElement(&a, &start); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
}

func (a pubmedArticle) toResult() (types.SearchResult, bool) {
	cit := a.MedlineCitation
	pmid := strings.TrimSpace(cit.PMID)
	title := StripTags(cit.Article.Title.Inner)
	if pmid == "" || title == "" {
		return types.SearchResult{}, false
	}

	var names []string
	for _, au := range cit.Article.Authors {
		if au.CollectiveName != "" {
			names = append(names, StripTags(au.CollectiveName))
			continue
		}
		names = append(names, JoinName(au.ForeName, au.LastName))
	}

	var abstract []string
	for _, p := range cit.Article.Abstract {
		abstract = append(abstract, p.Inner)
	}

	var pubTypes []string
	for _, t := range cit.Article.PublicationTypes {
		if t = strings.TrimSpace(t); t != "" {
			pubTypes = append(pubTypes, t)
		}
	}

	r := types.SearchResult{
		Source:         types.SourcePubMed,
		Title:          title,
		Authors:        CapAuthors(names),
		Year:           cit.Article.Journal.Issue.PubDate.year(),
		Venue:          strings.TrimSpace(cit.Article.Journal.Title),
		Identifier:     pmid,
		IdentifierType: types.IDPubMed,
		Snippet:        Snippet(strings.Join(abstract, " "), pubmedSnippetLen),
		URL:            CanonicalURL(types.IDPubMed, pmid),
		Kind:           types.KindPeerReviewed,
		Labels:         pubTypes,
	}
	for _, id := range a.PubmedData.ArticleIDs {
		if id.Type == "doi" {
			r.DOI = strings.TrimSpace(id.Value)
		}
	}
	return r, true
}

// E-utilities JSON and XML structures.
type pubmedSearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Journal struct {
				Title string `xml:"Title"`
				Issue struct {
					PubDate pubmedDate `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			Title            innerXML       `xml:"ArticleTitle"`
			Abstract         []innerXML     `xml:"Abstract>AbstractText"`
			Authors          []pubmedAuthor `xml:"AuthorList>Author"`
			PublicationTypes []string       `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	PubmedData struct {
		ArticleIDs []pubmedArticleID `xml:"ArticleIdList>ArticleId"`
	} `xml:"PubmedData"`
}

// innerXML keeps an element's raw content so inline markup (<i>, <sup>) can
// be stripped rather than lost.
type innerXML struct {
	Inner string `xml:",innerxml"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

type pubmedDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

func (d pubmedDate) year() int {
	if y := ParseYear(d.Year); y > 0 {
		return y
	}
	return ParseYear(d.MedlineDate)
}
