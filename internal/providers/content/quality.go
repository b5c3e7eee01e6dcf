package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

var (
	codeFencePattern    = regexp.MustCompile("(?s)```.*?```")
	markdownLinkPattern = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	imageMarkerPattern  = regexp.MustCompile(`\[IMAGE:[^\]]*\]`)
	markupRunePattern   = regexp.MustCompile("[#>*_`~]")
	whitespacePattern   = regexp.MustCompile(`\s+`)
	contractionPattern  = regexp.MustCompile(`\b\w+'\w+\b`)
	arabicScriptPattern = regexp.MustCompile("[؀-ۿݐ-ݿࢠ-ࣿ]")
	latinLetterPattern  = regexp.MustCompile(`[A-Za-z]`)
	anyLetterPattern    = regexp.MustCompile(`\p{L}`)
	referencesTail      = regexp.MustCompile(`(?ims)\n##\s+References\b.*$`)
	headingLinePattern  = regexp.MustCompile(`^#{1,6}\s+`)
)

// CountWords counts prose words, ignoring code fences, links, image markers
// and markdown punctuation.
func CountWords(text string) int {
	cleaned := codeFencePattern.ReplaceAllString(text, " ")
	cleaned = markdownLinkPattern.ReplaceAllString(cleaned, " ")
	cleaned = imageMarkerPattern.ReplaceAllString(cleaned, " ")
	cleaned = markupRunePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return 0
	}
	return len(strings.Split(cleaned, " "))
}

// CountImageMarkers counts [IMAGE: ...] placeholders.
func CountImageMarkers(text string) int {
	return len(imageMarkerPattern.FindAllStringIndex(text, -1))
}

// HashText returns the hex sha256 of the content, used for change detection
// across recovery passes.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// WordsPerPage returns the expected prose density for a level and style.
func WordsPerPage(level, style string) int {
	base := map[string]int{
		"School":     220,
		"College":    250,
		"University": 280,
		"Masters":    300,
		"PhD":        320,
	}[level]
	if base == 0 {
		base = 280
	}
	switch strings.ToLower(style) {
	case "direct and concise", "direct_and_concise", "concise":
		return maxInt(180, int(float64(base)*0.78+0.5))
	case "simple":
		return maxInt(200, int(float64(base)*0.9+0.5))
	case "creative":
		return int(float64(base)*1.05 + 0.5)
	default:
		return base
	}
}

// WordRange is the acceptable word window for a generated document.
type WordRange struct {
	Target       int `json:"target"`
	Min          int `json:"min"`
	Max          int `json:"max"`
	WordsPerPage int `json:"wordsPerPage"`
}

// TargetWordRange computes the acceptable length for a page count, level and
// style. The window is 5% around the target with a floor of 150 words.
func TargetWordRange(pages int, level, style string) WordRange {
	p := pages
	if p < 1 {
		p = 1
	}
	if p > 20 {
		p = 20
	}
	wpp := WordsPerPage(level, style)
	target := p * wpp
	return WordRange{
		Target:       target,
		Min:          maxInt(150, int(float64(target)*0.95+0.5)),
		Max:          int(float64(target)*1.05 + 0.5),
		WordsPerPage: wpp,
	}
}

// Issue is one content validation failure.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report summarises a validation pass.
type Report struct {
	OK          bool      `json:"ok"`
	Issues      []Issue   `json:"issues"`
	WordCount   int       `json:"wordCount"`
	MarkerCount int       `json:"markerCount"`
	Range       WordRange `json:"range"`
}

// Validate checks generated content against the payload contract: marker
// count, length window, required structure, script and style constraints.
func Validate(payload domain.GeneratePayload, text string) Report {
	var issues []Issue
	wordCount := CountWords(text)
	markerCount := CountImageMarkers(text)
	wr := TargetWordRange(payload.Pages, payload.Level, payload.Style)

	if payload.IncludeImages {
		if markerCount != payload.ImageCount {
			issues = append(issues, Issue{Code: "IMAGE_MARKERS", Message: fmt.Sprintf("expected exactly %d image markers but found %d", payload.ImageCount, markerCount)})
		}
	} else if markerCount != 0 {
		issues = append(issues, Issue{Code: "IMAGE_MARKERS", Message: "no image markers are allowed when images are disabled"})
	}

	if wordCount < wr.Min {
		issues = append(issues, Issue{Code: "LENGTH_UNDER", Message: fmt.Sprintf("content is too short for %d page(s)", payload.Pages)})
	}
	if wordCount > wr.Max {
		issues = append(issues, Issue{Code: "LENGTH_OVER", Message: fmt.Sprintf("content is too long for %d page(s)", payload.Pages)})
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "# ") {
		issues = append(issues, Issue{Code: "STRUCTURE", Message: "content must start with an H1 title"})
	}
	for _, section := range []string{"Abstract", "Introduction", "Conclusion"} {
		re := regexp.MustCompile(`(?im)^##\s+` + section + `\b`)
		if !re.MatchString(trimmed) {
			issues = append(issues, Issue{Code: "STRUCTURE", Message: fmt.Sprintf("content must include a %q section", "## "+section)})
		}
	}

	if msg, ok := checkScript(payload.Language, text); !ok {
		issues = append(issues, Issue{Code: "LANGUAGE_MISMATCH", Message: msg})
	}

	switch strings.ToLower(payload.Style) {
	case "formal":
		if contractionPattern.MatchString(text) {
			issues = append(issues, Issue{Code: "STYLE", Message: "formal style must avoid contractions"})
		}
	case "direct and concise", "direct_and_concise":
		if wordCount > wr.Target {
			issues = append(issues, Issue{Code: "STYLE", Message: "direct and concise style must stay below the target length"})
		}
	}

	return Report{OK: len(issues) == 0, Issues: issues, WordCount: wordCount, MarkerCount: markerCount, Range: wr}
}

// checkScript compares the dominant script of the prose against the requested
// language. Spanish and French share Latin script with English and pass the
// same ratio check.
func checkScript(lang, text string) (string, bool) {
	body := referencesTail.ReplaceAllString(text, "")
	var prose []string
	for _, line := range strings.Split(body, "\n") {
		if headingLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		prose = append(prose, line)
	}
	cleaned := imageMarkerPattern.ReplaceAllString(strings.Join(prose, "\n"), " ")
	cleaned = codeFencePattern.ReplaceAllString(cleaned, " ")
	cleaned = markupRunePattern.ReplaceAllString(cleaned, " ")

	total := len(anyLetterPattern.FindAllString(cleaned, -1))
	if total == 0 {
		return "content has no letters", false
	}
	latin := len(latinLetterPattern.FindAllString(cleaned, -1))
	arabic := len(arabicScriptPattern.FindAllString(cleaned, -1))

	switch lang {
	case "Urdu":
		if arabic >= 40 && float64(arabic)/float64(total) >= 0.35 {
			return "", true
		}
		return "Urdu selected but content is not predominantly Urdu script", false
	case "English", "EnglishUK", "Spanish", "French":
		if float64(latin)/float64(total) >= 0.5 && float64(arabic)/float64(total) <= 0.2 {
			return "", true
		}
		return fmt.Sprintf("%s selected but content appears to be another script", lang), false
	default:
		return "", true
	}
}

// EnsureH1Title prefixes an H1 built from topic and subject when the content
// starts with anything else.
func EnsureH1Title(text, topic, subject string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "# ") {
		return trimmed
	}
	title := strings.TrimSpace(topic)
	if title == "" {
		title = "Assignment"
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		title += " - " + subject
	}
	return "# " + title + "\n\n" + trimmed
}

// StripCodeFences removes markdown code fence wrappers some models add around
// whole documents.
func StripCodeFences(text string) string {
	out := regexp.MustCompile("```[a-zA-Z0-9_-]*\n").ReplaceAllString(text, "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
