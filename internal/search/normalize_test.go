// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no markup", "no markup"},
		{"removes tags", "<b>bold</b> text", "bold text"},
		{"adjacent tags join", "<b>foo</b>bar", "foobar"},
		{"entities decoded", "R&amp;D &lt; 5", "R&D < 5"},
		{"encoded markup stripped", "&lt;i&gt;in vivo&lt;/i&gt; study", "in vivo study"},
		{"collapses whitespace", "  a \n\t b  ", "a b"},
		{"search highlight", `<span class="searchmatch">Retina</span> layer`, "Retina layer"},
		{"unterminated angle kept", "p < 0.05", "p < 0.05"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestStripTagsSpaced(t *testing.T) {
	in := "<jats:title>Abstract</jats:title><jats:p>Background text.</jats:p>"
	assert.Equal(t, "Abstract Background text.", StripTagsSpaced(in))
}

func TestStripTagsNeverLeavesMarkup(t *testing.T) {
	tagLike := regexp.MustCompile(`<[^>]*>`)
	inputs := []string{
		"<<b>>x",
		"<a<b>c>d",
		"&lt;&lt;b&gt;&gt;",
		"<p>one</p>&lt;script&gt;alert(1)&lt;/script&gt;",
		"x <y z> w",
	}
	for _, in := range inputs {
		for _, out := range []string{StripTags(in), StripTagsSpaced(in)} {
			assert.False(t, tagLike.MatchString(out), "input %q left markup in %q", in, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"exact unchanged", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello"},
		{"cut drops trailing space", "hello world", 6, "hello"},
		{"multibyte safe", "αβγδε", 3, "αβγ"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestTruncateBound(t *testing.T) {
	s := strings.Repeat("é漢a ", 300)
	for _, n := range []int{1, 7, 200, 300, 400, 500} {
		got := Truncate(s, n)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), n)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestCapAuthors(t *testing.T) {
	in := []string{"A One", "", "B  Two", " ", "C Three", "D Four", "E Five", "F Six"}
	assert.Equal(t, []string{"A One", "B Two", "C Three", "D Four", "E Five"}, CapAuthors(in))
	assert.Nil(t, CapAuthors(nil))
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Jane Doe", JoinName("Jane", "Doe"))
	assert.Equal(t, "Doe", JoinName("", "Doe"))
	assert.Equal(t, "Jane", JoinName("Jane", ""))
	assert.Equal(t, "", JoinName("", ""))
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2021", 2021},
		{"2019 Mar-Apr", 2019},
		{"Winter 2018", 2018},
		{"2023-05-01", 2023},
		{"", 0},
		{"n.d.", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseYear(tt.in), "ParseYear(%q)", tt.in)
	}
}
