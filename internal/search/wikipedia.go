// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Wikipedia endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	wikipediaAPIBase  = "https://en.wikipedia.org/w/api.php"
	wikipediaPageBase = "https://en.wikipedia.org/wiki/"
)

const (
	wikipediaMaxResults = 50
	wikipediaSnippetLen = 300
)

// WikipediaBackend queries the MediaWiki full-text search API.
type WikipediaBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *WikipediaBackend) Name() types.SourceName { return types.SourceWikipedia }

// Search queries Wikipedia and returns normalized results.
func (b *WikipediaBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {strings.TrimSpace(query.FreeText)},
		"srlimit":  {strconv.Itoa(query.limit(cfg, wikipediaMaxResults))},
		"format":   {"json"},
		"utf8":     {"1"},
	}

	var wr wikipediaResponse
	if err := fetchJSON(ctx, b.Client, b.Limiter, b.Name(), wikipediaAPIBase+"?"+params.Encode(), cfg, nil, &wr); err != nil {
		return Page{}, err
	}

	page := Page{Total: wr.Query.SearchInfo.TotalHits}
	for _, hit := range wr.Query.Search {
		title := CollapseSpace(hit.Title)
		if title == "" {
			continue
		}
		page.Results = append(page.Results, types.SearchResult{
			Source:         types.SourceWikipedia,
			Title:          title,
			Identifier:     strconv.Itoa(hit.PageID),
			IdentifierType: types.IDWikipedia,
			Snippet:        Snippet(hit.Snippet, wikipediaSnippetLen),
			URL:            WikipediaURL(title),
			Kind:           types.KindEncyclopedia,
		})
	}
	return page, nil
}

// WikipediaURL returns the article link for a page title, with spaces as
// underscores and the title escaped as one path segment.
func WikipediaURL(title string) string {
	return wikipediaPageBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// MediaWiki API JSON structures.
type wikipediaResponse struct {
	Query struct {
		SearchInfo struct {
			TotalHits int `json:"totalhits"`
		} `json:"searchinfo"`
		Search []wikipediaHit `json:"search"`
	} `json:"query"`
}

type wikipediaHit struct {
	Title     string `json:"title"`
	PageID    int    `json:"pageid"`
	Snippet   string `json:"snippet"`
	Timestamp string `json:"timestamp"`
}
