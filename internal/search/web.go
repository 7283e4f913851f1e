// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// webSearchBase is the DuckDuckGo HTML endpoint. Declared as a var so tests
// can substitute an httptest server.
var webSearchBase = "https://html.duckduckgo.com/html/"

// webUserAgent is sent instead of the configured agent; the HTML endpoint
// serves an empty page to unknown clients.
const webUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

const (
	webMaxResults = 30
	webSnippetLen = 300
)

// WebBackend scrapes DuckDuckGo's HTML results page.
type WebBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *WebBackend) Name() types.SourceName { return types.SourceWeb }

// Search fetches the results page and extracts title, link, and snippet
// from each result block.
func (b *WebBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) (Page, error) {
	if query.IsEmpty() {
		return Page{}, emptyQueryError(b.Name())
	}

	reqURL := webSearchBase + "?" + url.Values{"q": {strings.TrimSpace(query.FreeText)}}.Encode()
	resp, err := fetch(ctx, b.Client, b.Limiter, b.Name(), reqURL, cfg, http.Header{"User-Agent": {webUserAgent}})
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Page{}, &SourceError{Source: b.Name(), Op: "decode", Err: err}
	}

	limit := query.limit(cfg, webMaxResults)
	var page Page
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := CollapseSpace(link.Text())
		href, _ := link.Attr("href")
		target := resolveWebLink(href)
		if title == "" || target == "" {
			return true
		}

		page.Results = append(page.Results, types.SearchResult{
			Source:  types.SourceWeb,
			Title:   title,
			Snippet: Snippet(s.Find(".result__snippet").First().Text(), webSnippetLen),
			URL:     target,
			Kind:    types.KindWeb,
			Labels:  nonEmpty(hostLabel(target)),
		})
		return len(page.Results) < limit
	})
	page.Total = len(page.Results)
	return page, nil
}

// resolveWebLink unwraps DuckDuckGo redirect links ("//duckduckgo.com/l/?uddg=...")
// to the destination URL. Non-http(s) links yield "".
func resolveWebLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if dest := u.Query().Get("uddg"); dest != "" {
			return resolveWebLink(dest)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// hostLabel returns the bare host of a link for display.
func hostLabel(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
