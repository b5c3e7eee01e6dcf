package content

import (
	"context"
	"strings"
	"testing"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"plain prose", "one two three", 3},
		{"markdown stripped", "# Title\n\nSome **bold** prose here.", 5},
		{"image markers ignored", "before [IMAGE: SECTION_TITLE=\"X\"] after", 2},
		{"code fences ignored", "alpha\n```go\nfunc main() {}\n```\nbeta", 2},
		{"links keep label out", "see [the docs](https://example.com) now", 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountWords(tc.text); got != tc.want {
				t.Fatalf("CountWords = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTargetWordRange(t *testing.T) {
	tests := []struct {
		name  string
		pages int
		level string
		style string
		want  WordRange
	}{
		{"school base", 1, "School", "Academic", WordRange{Target: 220, Min: 209, Max: 231, WordsPerPage: 220}},
		{"phd base", 2, "PhD", "Academic", WordRange{Target: 640, Min: 608, Max: 672, WordsPerPage: 320}},
		{"concise floor", 1, "School", "Direct and concise", WordRange{Target: 180, Min: 171, Max: 189, WordsPerPage: 180}},
		{"simple multiplier", 1, "College", "Simple", WordRange{Target: 225, Min: 214, Max: 236, WordsPerPage: 225}},
		{"unknown level defaults", 1, "", "Academic", WordRange{Target: 280, Min: 266, Max: 294, WordsPerPage: 280}},
		{"pages clamped", 50, "School", "Academic", WordRange{Target: 4400, Min: 4180, Max: 4620, WordsPerPage: 220}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TargetWordRange(tc.pages, tc.level, tc.style); got != tc.want {
				t.Fatalf("TargetWordRange = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func validDocument(t *testing.T, payload domain.GeneratePayload) string {
	t.Helper()
	doc, err := NewTemplateGenerator().Generate(context.Background(), payload, 7)
	if err != nil {
		t.Fatalf("template generate: %v", err)
	}
	return doc
}

func qualityPayload() domain.GeneratePayload {
	return domain.GeneratePayload{
		Topic:    "Machine Learning",
		Subject:  "Computer Science",
		Level:    "University",
		Length:   "Medium",
		Style:    "Academic",
		Pages:    2,
		Language: "English",
	}
}

func TestValidateAcceptsWellFormedContent(t *testing.T) {
	payload := qualityPayload()
	report := Validate(payload, validDocument(t, payload))
	if !report.OK {
		t.Fatalf("expected ok, got issues %+v", report.Issues)
	}
	if report.WordCount < report.Range.Min || report.WordCount > report.Range.Max {
		t.Fatalf("word count %d outside range %+v", report.WordCount, report.Range)
	}
}

func TestValidateMarkerCountMismatch(t *testing.T) {
	payload := qualityPayload()
	payload.IncludeImages = true
	payload.ImageCount = 3
	doc := validDocument(t, payload)
	doc = strings.Replace(doc, "[IMAGE:", "[SKIPPED:", 1)

	report := Validate(payload, doc)
	if report.OK {
		t.Fatal("expected marker issue")
	}
	if !hasIssue(report, "IMAGE_MARKERS") {
		t.Fatalf("missing IMAGE_MARKERS issue: %+v", report.Issues)
	}
}

func TestValidateMarkersForbiddenWhenDisabled(t *testing.T) {
	payload := qualityPayload()
	doc := validDocument(t, payload) + "\n\n[IMAGE: stray marker]"

	report := Validate(payload, doc)
	if !hasIssue(report, "IMAGE_MARKERS") {
		t.Fatalf("missing IMAGE_MARKERS issue: %+v", report.Issues)
	}
}

func TestValidateLengthBounds(t *testing.T) {
	payload := qualityPayload()

	short := Validate(payload, "# T\n\n## Abstract\n\nbrief\n\n## Introduction\n\nbrief\n\n## Conclusion\n\nbrief")
	if !hasIssue(short, "LENGTH_UNDER") {
		t.Fatalf("missing LENGTH_UNDER issue: %+v", short.Issues)
	}

	long := validDocument(t, payload) + "\n\n" + strings.Repeat("extra padding words beyond the allowed window. ", 60)
	if report := Validate(payload, long); !hasIssue(report, "LENGTH_OVER") {
		t.Fatalf("missing LENGTH_OVER issue: %+v", report.Issues)
	}
}

func TestValidateStructure(t *testing.T) {
	payload := qualityPayload()
	doc := validDocument(t, payload)
	broken := strings.Replace(doc, "## Abstract", "## Summary", 1)
	broken = strings.TrimPrefix(broken, "# ")

	report := Validate(payload, broken)
	if !hasIssue(report, "STRUCTURE") {
		t.Fatalf("missing STRUCTURE issue: %+v", report.Issues)
	}
}

func TestValidateFormalStyleRejectsContractions(t *testing.T) {
	payload := qualityPayload()
	payload.Style = "Formal"
	doc := validDocument(t, payload)

	if report := Validate(payload, doc); !report.OK {
		t.Fatalf("clean formal document rejected: %+v", report.Issues)
	}
	withContraction := strings.Replace(doc, "This paper examines", "It doesn't examine", 1)
	if report := Validate(payload, withContraction); !hasIssue(report, "STYLE") {
		t.Fatalf("missing STYLE issue: %+v", report.Issues)
	}
}

func TestValidateUrduScript(t *testing.T) {
	payload := qualityPayload()
	payload.Language = "Urdu"

	if report := Validate(payload, validDocument(t, payload)); !report.OK {
		t.Fatalf("urdu document rejected: %+v", report.Issues)
	}

	payload2 := qualityPayload()
	payload2.Language = "Urdu"
	english := validDocument(t, qualityPayload())
	if report := Validate(payload2, english); !hasIssue(report, "LANGUAGE_MISMATCH") {
		t.Fatalf("missing LANGUAGE_MISMATCH issue: %+v", report.Issues)
	}
}

func TestHashTextStable(t *testing.T) {
	a := HashText("same content")
	b := HashText("same content")
	if a != b {
		t.Fatal("hash not stable")
	}
	if a == HashText("other content") {
		t.Fatal("hash did not change with content")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64", len(a))
	}
}

func TestEnsureH1Title(t *testing.T) {
	if got := EnsureH1Title("## Abstract\n\ntext", "Topic", "Subject"); !strings.HasPrefix(got, "# Topic - Subject\n") {
		t.Fatalf("missing injected title: %q", got)
	}
	keep := "# Existing Title\n\ntext"
	if got := EnsureH1Title(keep, "Topic", ""); got != keep {
		t.Fatalf("existing title rewritten: %q", got)
	}
}

func hasIssue(report Report, code string) bool {
	for _, issue := range report.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
