package image

import (
	"regexp"
	"strings"
)

var (
	markerPattern       = regexp.MustCompile(`\[IMAGE:\s*(.*?)\]`)
	sectionTitlePattern = regexp.MustCompile(`SECTION_TITLE="([^"]+)"`)
	keywordsPattern     = regexp.MustCompile(`KEYWORDS="([^"]+)"`)
	descriptionPattern  = regexp.MustCompile(`DESCRIPTION="([^"]+)"`)
)

// Marker is one parsed [IMAGE: ...] placeholder from generated content.
type Marker struct {
	SectionTitle string
	Keywords     string
	Description  string
}

// ExtractMarkers returns the raw bodies of every [IMAGE: ...] marker in order.
func ExtractMarkers(content string) []string {
	if content == "" {
		return nil
	}
	var out []string
	for _, m := range markerPattern.FindAllStringSubmatch(content, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			out = append(out, body)
		}
	}
	return out
}

// ParseMarker decodes the structured fields of a marker body. A body without
// structured fields becomes the description verbatim.
func ParseMarker(raw string) Marker {
	marker := Marker{Description: raw}
	if m := sectionTitlePattern.FindStringSubmatch(raw); m != nil {
		marker.SectionTitle = m[1]
	}
	if m := keywordsPattern.FindStringSubmatch(raw); m != nil {
		marker.Keywords = m[1]
	}
	if m := descriptionPattern.FindStringSubmatch(raw); m != nil {
		marker.Description = m[1]
	}
	return marker
}

// CountMarkers reports how many image markers the content carries.
func CountMarkers(content string) int {
	return len(markerPattern.FindAllStringIndex(content, -1))
}
