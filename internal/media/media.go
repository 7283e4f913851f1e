// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package media finds embedded video references in completion text.
package media

import "regexp"

// videoPattern matches the watch, short-link, and embed URL shapes and
// captures the 11-character video ID.
var videoPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`)

// Media is the set of references found in one response.
type Media struct {
	Videos []string `json:"videos"`
}

// Empty reports whether no references were found.
func (m Media) Empty() bool { return len(m.Videos) == 0 }

// ExtractVideos returns the distinct video IDs in text, in first-seen order.
func ExtractVideos(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range videoPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Extract wraps ExtractVideos in a Media value.
func Extract(text string) Media {
	return Media{Videos: ExtractVideos(text)}
}
