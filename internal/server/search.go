// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	errQueryRequired = "Query is required"
	errSearchFailed  = "Search failed"
	errBadBody       = "Invalid request body"

	deepWebLabel      = "Deep Web Search"
	multiSourceLabel  = "Multi-Source Search"
	defaultWebResults = 15
)

// dateLayouts are accepted for filters.dateFrom.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006-01", "2006/01", "2006"}

// searchRequest is the body accepted by every search endpoint. Each
// source reads the fields it understands and ignores the rest.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
	SortBy     string `json:"sortBy"`
	Filters    struct {
		DateFrom     string   `json:"dateFrom"`
		ArticleTypes []string `json:"articleTypes"`
		FreeFullText bool     `json:"freeFullText"`
		Humans       bool     `json:"humans"`
	} `json:"filters"`

	Type          string   `json:"type"`
	FromYear      int      `json:"fromYear"`
	YearFrom      int      `json:"yearFrom"`
	YearTo        int      `json:"yearTo"`
	FieldsOfStudy []string `json:"fieldsOfStudy"`

	Status    string `json:"status"`
	Phase     string `json:"phase"`
	StudyType string `json:"studyType"`

	// DeepSearch defaults to true.
	DeepSearch *bool `json:"deepSearch"`

	Sources []string `json:"sources"`
}

// query converts the body into an aggregator query.
func (r searchRequest) query() search.Query {
	q := search.Query{
		FreeText:   strings.TrimSpace(r.Query),
		MaxResults: r.MaxResults,
		Filters: search.Filters{
			DateFrom:      parseDate(r.Filters.DateFrom),
			YearFrom:      r.YearFrom,
			YearTo:        r.YearTo,
			ArticleTypes:  r.Filters.ArticleTypes,
			FreeFullText:  r.Filters.FreeFullText,
			Humans:        r.Filters.Humans,
			SortByDate:    strings.EqualFold(r.SortBy, "date"),
			WorkType:      r.Type,
			FieldsOfStudy: r.FieldsOfStudy,
			Status:        r.Status,
			Phase:         r.Phase,
			StudyType:     r.StudyType,
		},
	}
	if q.Filters.YearFrom == 0 {
		q.Filters.YearFrom = r.FromYear
	}
	return q
}

func (r searchRequest) deep() bool {
	return r.DeepSearch == nil || *r.DeepSearch
}

// parseDate accepts a few common date shapes; anything else is ignored.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// searchResponse is the body returned by every search endpoint.
type searchResponse struct {
	Results           []types.SearchResult `json:"results"`
	TotalCount        int                  `json:"totalCount"`
	UpstreamTotal     int                  `json:"upstreamTotal"`
	Query             string               `json:"query"`
	Source            string               `json:"source"`
	Sources           []string             `json:"sources,omitempty"`
	SourcesQueried    []types.SourceName   `json:"sourcesQueried"`
	SourcesSucceeded  []types.SourceName   `json:"sourcesSucceeded"`
	DuplicatesRemoved int                  `json:"duplicatesRemoved"`
	Timestamp         time.Time            `json:"timestamp"`
}

// bindSearch decodes the body and rejects a missing or blank query. It
// writes the error response itself and reports whether to continue.
func bindSearch(c *gin.Context) (searchRequest, bool) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadBody})
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errQueryRequired})
		return req, false
	}
	return req, true
}

// handleSourceSearch serves POST /api/search/:source. A single-source
// search fails with 500 when its source fails.
func (s *Server) handleSourceSearch(c *gin.Context) {
	name, ok := types.ParseSourceName(c.Param("source"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source"})
		return
	}
	if name == types.SourceWeb {
		s.handleWebSearch(c)
		return
	}
	backend, ok := s.Registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source"})
		return
	}

	req, ok := bindSearch(c)
	if !ok {
		return
	}
	s.runSearch(c, req.query(), []search.Backend{backend}, true, name.DisplayName(), nil)
}

// handleWebSearch runs the deep web set: the web index, plus the
// encyclopedia and (for technical queries) the preprint repository when
// deepSearch is on.
func (s *Server) handleWebSearch(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}
	q := req.query()
	if q.MaxResults <= 0 {
		q.MaxResults = defaultWebResults
	}

	backends := s.Registry.Web(q, req.deep())
	if len(backends) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source"})
		return
	}
	s.runSearch(c, q, backends, false, deepWebLabel, displayNames(backends))
}

// handleMultiSearch serves POST /api/search over the requested sources,
// or every enabled source when none are named.
func (s *Server) handleMultiSearch(c *gin.Context) {
	req, ok := bindSearch(c)
	if !ok {
		return
	}

	names := make([]types.SourceName, 0, len(req.Sources))
	for _, raw := range req.Sources {
		name, ok := types.ParseSourceName(raw)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source: " + raw})
			return
		}
		names = append(names, name)
	}
	backends, err := s.Registry.Select(names)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.runSearch(c, req.query(), backends, false, multiSourceLabel, displayNames(backends))
}

func (s *Server) runSearch(c *gin.Context, q search.Query, backends []search.Backend, strict bool, label string, sources []string) {
	out, err := search.Aggregate(c.Request.Context(), q, backends, s.Search, search.Options{
		RequireSuccess: strict,
		Logger:         s.logger().With(zap.String(requestIDKey, c.GetString(requestIDKey))),
	})
	if err != nil {
		s.logger().Error("search failed",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("source", label),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errSearchFailed})
		return
	}

	// A single source reports its upstream match count; merged searches
	// report the unique count.
	total := out.TotalCount
	if strict && out.UpstreamTotal > 0 {
		total = out.UpstreamTotal
	}

	c.JSON(http.StatusOK, searchResponse{
		Results:           out.Results,
		TotalCount:        total,
		UpstreamTotal:     out.UpstreamTotal,
		Query:             q.FreeText,
		Source:            label,
		Sources:           sources,
		SourcesQueried:    out.SourcesQueried,
		SourcesSucceeded:  out.SourcesSucceeded,
		DuplicatesRemoved: out.DuplicatesRemoved,
		Timestamp:         s.now(),
	})
}

func displayNames(backends []search.Backend) []string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name().DisplayName()
	}
	return names
}
