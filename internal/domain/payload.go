package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// GeneratePayload is the normalized generation request. It is owned by the
// job that carries it; after creation only recovery actions mutate it.
type GeneratePayload struct {
	Topic          string   `json:"topic" validate:"required,max=180"`
	Subject        string   `json:"subject" validate:"required,max=80"`
	Level          string   `json:"level" validate:"required,oneof=School College University Masters PhD"`
	Length         string   `json:"length" validate:"required,oneof=Short Medium Detailed"`
	Style          string   `json:"style" validate:"required,oneof=Formal Academic Simple Creative 'Direct and concise'"`
	Pages          int      `json:"pages" validate:"min=1,max=20"`
	Language       string   `json:"language" validate:"required,oneof=English EnglishUK Urdu Spanish French"`
	EnglishVariant string   `json:"englishVariant"`
	Urgency        string   `json:"urgency" validate:"oneof=Normal Urgent"`
	References     bool     `json:"references"`
	CitationStyle  string   `json:"citationStyle" validate:"omitempty,oneof=APA MLA Chicago Harvard"`
	IncludeImages  bool     `json:"includeImages"`
	ImageCount     int      `json:"imageCount" validate:"min=0,max=5"`
	Images         []string `json:"images" validate:"max=5"`
	Instructions   string   `json:"instructions" validate:"max=4000"`
	Seed           int      `json:"seed,omitempty"`
}

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// Languages the generator can write in, in matcher order.
var assignmentLanguages = []struct {
	Name string
	Tag  language.Tag
}{
	{"English", language.AmericanEnglish},
	{"EnglishUK", language.BritishEnglish},
	{"Urdu", language.Urdu},
	{"Spanish", language.Spanish},
	{"French", language.French},
}

var languageMatcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(assignmentLanguages))
	for _, l := range assignmentLanguages {
		tags = append(tags, l.Tag)
	}
	return language.NewMatcher(tags)
}()

var languageAliases = map[string]string{
	"english (uk)": "EnglishUK",
	"english_uk":   "EnglishUK",
	"english (us)": "English",
	"english_us":   "English",
	"اردو":         "Urdu",
}

// CanonicalLanguage maps free-form language input (canonical names, common
// aliases, or BCP-47 tags such as "en-GB" or "ur-PK") onto the generator's
// language names. It returns "" when the input cannot be matched.
func CanonicalLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, l := range assignmentLanguages {
		if strings.EqualFold(raw, l.Name) {
			return l.Name
		}
	}
	if name, ok := languageAliases[strings.ToLower(raw)]; ok {
		return name
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return ""
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf < language.High {
		return ""
	}
	return assignmentLanguages[idx].Name
}

// NormalizeGeneratePayload trims, canonicalizes and validates a raw request
// payload. defaultLanguage fills the language field when the client omitted
// it (usually the locale detected from the request). A non-empty error list
// means no job may be created.
func NormalizeGeneratePayload(p GeneratePayload, defaultLanguage string) (GeneratePayload, []FieldError) {
	var errs []FieldError

	p.Topic = strings.TrimSpace(p.Topic)
	p.Subject = strings.TrimSpace(p.Subject)
	p.Level = strings.TrimSpace(p.Level)
	p.Length = strings.TrimSpace(p.Length)
	p.Style = normalizeStyle(strings.TrimSpace(p.Style))
	p.Instructions = strings.TrimSpace(p.Instructions)
	p.CitationStyle = strings.TrimSpace(p.CitationStyle)
	p.Urgency = strings.TrimSpace(p.Urgency)

	rawLanguage := strings.TrimSpace(p.Language)
	switch canonical := CanonicalLanguage(rawLanguage); {
	case canonical != "":
		p.Language = canonical
	case rawLanguage == "":
		p.Language = CanonicalLanguage(defaultLanguage)
		if p.Language == "" {
			p.Language = "English"
		}
	default:
		errs = append(errs, FieldError{Field: "language", Message: fmt.Sprintf("unsupported language %q", rawLanguage)})
	}
	if p.Language == "EnglishUK" {
		p.EnglishVariant = "UK"
	} else {
		p.EnglishVariant = "US"
	}

	if p.Urgency == "" {
		p.Urgency = "Normal"
	}
	if p.CitationStyle == "" {
		p.CitationStyle = "APA"
	}
	p.Pages = clampInt(p.Pages, 1, 20, 1)
	if p.IncludeImages {
		p.ImageCount = clampInt(p.ImageCount, 1, 5, 1)
	} else if p.ImageCount != 0 {
		errs = append(errs, FieldError{Field: "imageCount", Message: "image count must be 0 when images are disabled"})
		p.ImageCount = 0
	}
	p.Images = sanitizeImages(p.Images, 5)
	if p.Seed != 0 {
		p.Seed = clampInt(p.Seed, 1, 1_000_000_000, 1000)
	}

	if err := payloadValidator.Struct(p); err != nil {
		var invalid validator.ValidationErrors
		if ok := isValidationErrors(err, &invalid); ok {
			for _, fe := range invalid {
				errs = append(errs, FieldError{Field: jsonFieldName(fe.Field()), Message: describeValidation(fe)})
			}
		} else {
			errs = append(errs, FieldError{Field: "payload", Message: err.Error()})
		}
	}
	return p, errs
}

func normalizeStyle(style string) string {
	switch strings.ToLower(style) {
	case "direct and concise", "direct_and_concise", "concise":
		return "Direct and concise"
	}
	return style
}

func sanitizeImages(images []string, max int) []string {
	var out []string
	for _, img := range images {
		if strings.TrimSpace(img) == "" {
			continue
		}
		out = append(out, img)
		if len(out) == max {
			break
		}
	}
	return out
}

func clampInt(v, min, max, fallback int) int {
	if v == 0 {
		return fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func isValidationErrors(err error, target *validator.ValidationErrors) bool {
	if v, ok := err.(validator.ValidationErrors); ok {
		*target = v
		return true
	}
	return false
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describeValidation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("is too long (max %s)", fe.Param())
	case "min":
		return fmt.Sprintf("is too small (min %s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
