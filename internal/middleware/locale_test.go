package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func languageProbe(t *testing.T, lookup CountryLookup, decorate func(*http.Request)) (string, string) {
	t.Helper()
	var language, country string
	handler := Locale("English", lookup)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		language = LanguageFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.RemoteAddr = "203.0.113.10:4444"
	if decorate != nil {
		decorate(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return language, country
}

func TestLocaleHeaderWins(t *testing.T) {
	lang, _ := languageProbe(t, nil, func(r *http.Request) {
		r.Header.Set("X-Language", "ur")
		r.Header.Set("Accept-Language", "fr-FR")
	})
	if lang != "Urdu" {
		t.Fatalf("language = %q, want Urdu", lang)
	}
}

func TestLocaleAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"en-GB,en;q=0.8", "EnglishUK"},
		{"es-MX", "Spanish"},
		{"fr", "French"},
		{"en-US", "English"},
		{"*", "English"},
	}
	for _, tc := range tests {
		lang, _ := languageProbe(t, nil, func(r *http.Request) {
			r.Header.Set("Accept-Language", tc.header)
		})
		if lang != tc.want {
			t.Fatalf("Accept-Language %q -> %q, want %q", tc.header, lang, tc.want)
		}
	}
}

func TestLocaleGeoIPFallback(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.10" {
			return "", errors.New("unexpected ip")
		}
		return "PK", nil
	}
	lang, country := languageProbe(t, lookup, nil)
	if lang != "Urdu" || country != "PK" {
		t.Fatalf("got %q %q, want Urdu PK", lang, country)
	}
}

func TestLocaleCountryHeaderBeatsLookup(t *testing.T) {
	lookup := func(string) (string, error) { return "PK", nil }
	lang, country := languageProbe(t, lookup, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "fr")
	})
	if lang != "French" || country != "FR" {
		t.Fatalf("got %q %q, want French FR", lang, country)
	}
}

func TestLocaleDefault(t *testing.T) {
	lang, country := languageProbe(t, nil, nil)
	if lang != "English" || country != "" {
		t.Fatalf("got %q %q, want English and empty country", lang, country)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("ClientIP = %q", got)
	}
}
