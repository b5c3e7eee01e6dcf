package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

type languageContextKey struct{}
type countryContextKey struct{}

var (
	LanguageKey = languageContextKey{}
	CountryKey  = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Countries whose visitors most often want a non-default assignment language.
var countryLanguages = map[string]string{
	"GB": "EnglishUK",
	"IE": "EnglishUK",
	"PK": "Urdu",
	"IN": "Urdu",
	"ES": "Spanish",
	"MX": "Spanish",
	"AR": "Spanish",
	"CO": "Spanish",
	"FR": "French",
	"BE": "French",
	"SN": "French",
}

// Locale detects the assignment language to default to when a generation
// request omits one: explicit X-Language header first, then Accept-Language,
// then the GeoIP country of the client address.
func Locale(defaultLanguage string, lookup CountryLookup) func(http.Handler) http.Handler {
	if domain.CanonicalLanguage(defaultLanguage) == "" {
		defaultLanguage = "English"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			language := detectLanguage(r, defaultLanguage, country)
			ctx := context.WithValue(r.Context(), LanguageKey, language)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLanguage(r *http.Request, fallback, country string) string {
	if lang := domain.CanonicalLanguage(r.Header.Get("X-Language")); lang != "" {
		return lang
	}
	for _, tag := range acceptLanguageTags(r.Header.Get("Accept-Language")) {
		if lang := domain.CanonicalLanguage(tag); lang != "" {
			return lang
		}
	}
	if lang, ok := countryLanguages[country]; ok {
		return lang
	}
	return fallback
}

func acceptLanguageTags(header string) []string {
	var out []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag != "" && tag != "*" {
			out = append(out, tag)
		}
	}
	return out
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LanguageFromContext returns the detected assignment language.
func LanguageFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LanguageKey).(string); ok {
		return v
	}
	return "English"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}
