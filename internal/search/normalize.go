// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxAuthors caps the author list of every normalized result.
const MaxAuthors = 5

// tagPattern matches one markup tag. A leftover "<" with no closing ">"
// after it is not a tag and survives.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// yearPattern finds the first plausible four-digit year in free-form dates
// such as "2019 Mar-Apr" or "Winter 2018".
var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|2[0-9]{3})\b`)

// StripTags removes markup tags, decodes entities, and collapses whitespace.
// Tags are deleted outright, so "<b>foo</b>bar" becomes "foobar".
func StripTags(s string) string {
	return cleanMarkup(s, "")
}

// StripTagsSpaced is StripTags with each tag replaced by a space, which keeps
// words apart when paragraphs or structured abstract sections are adjacent.
func StripTagsSpaced(s string) string {
	return cleanMarkup(s, " ")
}

func cleanMarkup(s, repl string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, repl)
	s = html.UnescapeString(s)
	// Entity-encoded markup ("&lt;i&gt;") only becomes a tag after decoding.
	s = tagPattern.ReplaceAllString(s, repl)
	return CollapseSpace(s)
}

// CollapseSpace trims s and reduces every whitespace run to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most max runes of s. It never splits a multi-byte
// character and drops trailing whitespace left by the cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:max]), " \t\n")
}

// Snippet strips markup from s and truncates the result to max runes.
func Snippet(s string, max int) string {
	return Truncate(StripTagsSpaced(s), max)
}

// JoinName formats a display name as "Given Family", tolerating either part
// being empty.
func JoinName(given, family string) string {
	return CollapseSpace(given + " " + family)
}

// CapAuthors drops blank names and keeps at most MaxAuthors, in order.
func CapAuthors(names []string) []string {
	var out []string
	for _, n := range names {
		n = CollapseSpace(n)
		if n == "" {
			continue
		}
		out = append(out, n)
		if len(out) == MaxAuthors {
			break
		}
	}
	return out
}

// ParseYear extracts a publication year from a free-form date string,
// returning 0 when none is present.
func ParseYear(s string) int {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return y
}

// intPtr returns a pointer to a copy of n.
func intPtr(n int) *int { return &n }
