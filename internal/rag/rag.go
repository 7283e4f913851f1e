// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rag builds the retrieved-context block appended to chat messages.
// A fixed panel of sources is queried for the user's message and every
// returned result is rendered as one provenance-tagged fact. Unlike the
// search aggregator, results are not deduplicated: repeated facts across
// sources are kept as corroboration.
package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	// DefaultMinMessageLength is the length a message must exceed before
	// augmentation runs.
	DefaultMinMessageLength = 10

	excerptLen     = 200
	contextAuthors = 3
)

// Entry is one panel member: a source and the number of results it
// contributes.
type Entry struct {
	Backend    search.Backend
	MaxResults int
}

// Panel is the ordered list of sources queried for context. Its order
// decides the order of facts in the rendered block.
type Panel []Entry

// NewPanel resolves configured panel sources against the registry.
// Sources the registry does not have enabled are skipped.
func NewPanel(reg *search.Registry, sources []types.PanelSource) Panel {
	var p Panel
	for _, ps := range sources {
		b, ok := reg.Get(ps.Source)
		if !ok {
			continue
		}
		p = append(p, Entry{Backend: b, MaxResults: ps.MaxResults})
	}
	return p
}

// Context is the assembled augmentation block.
type Context struct {
	// Text is empty when no source contributed a result.
	Text string

	// Sources lists the display names of sources that returned results,
	// in panel order.
	Sources []string

	// FactCount is the number of rendered result entries.
	FactCount int
}

// Empty reports whether no augmentation was produced.
func (c Context) Empty() bool { return c.Text == "" }

// ShouldAugment reports whether a message qualifies for augmentation:
// the caller must have it enabled and the message must be longer than
// minLen characters. A non-positive minLen uses the default.
func ShouldAugment(message string, enabled bool, minLen int) bool {
	if minLen <= 0 {
		minLen = DefaultMinMessageLength
	}
	return enabled && utf8.RuneCountInString(message) > minLen
}

// Assembler queries a panel and renders the results.
type Assembler struct {
	Panel  Panel
	Config types.SearchConfig
	Logger *zap.Logger
}

// Gather queries every panel source concurrently with the message as free
// text and returns each source's settled outcome in panel order.
func (a *Assembler) Gather(ctx context.Context, message string) []search.Outcome {
	backends := make([]search.Backend, len(a.Panel))
	for i, e := range a.Panel {
		backends[i] = search.Limit(e.Backend, e.MaxResults)
	}
	return search.Collect(ctx, search.Query{FreeText: message}, backends, a.Config, a.Logger)
}

// Build gathers and assembles context for message.
func (a *Assembler) Build(ctx context.Context, message string) Context {
	c := Assemble(a.Gather(ctx, message))
	if a.Logger != nil {
		a.Logger.Debug("context assembled",
			zap.Int("facts", c.FactCount),
			zap.Strings("sources", c.Sources))
	}
	return c
}

// Assemble renders outcomes into a context block. Failed sources
// contribute nothing. When no source has a result the text is empty.
func Assemble(outcomes []search.Outcome) Context {
	var c Context
	var body strings.Builder
	for _, o := range outcomes {
		if o.Err != nil || len(o.Page.Results) == 0 {
			continue
		}
		c.Sources = append(c.Sources, o.Source.DisplayName())
		for _, r := range o.Page.Results {
			writeFact(&body, r)
			c.FactCount++
		}
	}
	if c.FactCount == 0 {
		return c
	}

	var sb strings.Builder
	sb.WriteString("\n\n---\n## Real-Time Verified Research Context\n")
	fmt.Fprintf(&sb, "*Sources: %s*\n", strings.Join(c.Sources, ", "))
	sb.WriteString(body.String())
	fmt.Fprintf(&sb, "\n*Total verified facts: %d from %d sources*\n", c.FactCount, len(c.Sources))
	c.Text = sb.String()
	return c
}

func writeFact(sb *strings.Builder, r types.SearchResult) {
	fmt.Fprintf(sb, "\n**[%s]** %s", r.Source.DisplayName(), r.Title)

	if meta := factMetadata(r); len(meta) > 0 {
		sb.WriteString("\n   ")
		sb.WriteString(strings.Join(meta, " | "))
	}
	if r.Snippet != "" {
		sb.WriteString("\n   > ")
		sb.WriteString(excerpt(r.Snippet))
	}
	sb.WriteString("\n")
}

// factMetadata returns the continuation-line fields present on r.
func factMetadata(r types.SearchResult) []string {
	var meta []string
	if len(r.Authors) > 0 {
		authors := r.Authors
		if len(authors) > contextAuthors {
			authors = authors[:contextAuthors]
		}
		meta = append(meta, "Authors: "+strings.Join(authors, ", "))
	}
	if r.Year > 0 {
		meta = append(meta, "Year: "+strconv.Itoa(r.Year))
	}
	if r.CitationCount != nil && *r.CitationCount > 0 {
		meta = append(meta, "Citations: "+strconv.Itoa(*r.CitationCount))
	}
	if r.Venue != "" {
		meta = append(meta, "Journal: "+r.Venue)
	}
	switch r.IdentifierType {
	case types.IDPubMed, types.IDClinicalTrial:
		meta = append(meta, search.IdentifierLabel(r.IdentifierType)+": "+r.Identifier)
	}
	if doi := factDOI(r); doi != "" {
		meta = append(meta, search.IdentifierLabel(types.IDDOI)+": "+doi)
	}
	return meta
}

func factDOI(r types.SearchResult) string {
	if r.DOI != "" {
		return r.DOI
	}
	if r.IdentifierType == types.IDDOI {
		return r.Identifier
	}
	return ""
}

// excerpt shortens s to excerptLen runes, marking a cut with "...".
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	return search.Truncate(s, excerptLen) + "..."
}
