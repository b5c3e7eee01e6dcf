package image

import "testing"

const sampleContent = `# Renewable Energy

## Introduction

Solar power has grown quickly.

[IMAGE: SECTION_TITLE="Introduction" KEYWORDS="solar, panels" DESCRIPTION="Rooftop solar panels at sunrise"]

## Methods

[IMAGE: SECTION_TITLE="Methods" KEYWORDS="wind turbines" DESCRIPTION="Offshore wind farm"]

## Conclusion

Plain marker next.

[IMAGE: a hand-drawn diagram of an electric grid]
`

func TestExtractMarkers(t *testing.T) {
	markers := ExtractMarkers(sampleContent)
	if len(markers) != 3 {
		t.Fatalf("markers = %d, want 3", len(markers))
	}
	if markers[2] != "a hand-drawn diagram of an electric grid" {
		t.Fatalf("unexpected third marker %q", markers[2])
	}
	if got := ExtractMarkers(""); got != nil {
		t.Fatalf("empty content returned markers: %v", got)
	}
}

func TestParseMarker(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Marker
	}{
		{
			name: "structured",
			raw:  `SECTION_TITLE="Methods" KEYWORDS="wind turbines" DESCRIPTION="Offshore wind farm"`,
			want: Marker{SectionTitle: "Methods", Keywords: "wind turbines", Description: "Offshore wind farm"},
		},
		{
			name: "plain body becomes description",
			raw:  "a hand-drawn diagram",
			want: Marker{Description: "a hand-drawn diagram"},
		},
		{
			name: "partial fields",
			raw:  `SECTION_TITLE="Results" some trailing text`,
			want: Marker{SectionTitle: "Results", Description: `SECTION_TITLE="Results" some trailing text`},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseMarker(tc.raw); got != tc.want {
				t.Fatalf("ParseMarker(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCountMarkers(t *testing.T) {
	if got := CountMarkers(sampleContent); got != 3 {
		t.Fatalf("CountMarkers = %d, want 3", got)
	}
	if got := CountMarkers("no markers here"); got != 0 {
		t.Fatalf("CountMarkers = %d, want 0", got)
	}
}
