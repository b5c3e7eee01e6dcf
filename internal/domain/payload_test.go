package domain

import "testing"

func basePayload() GeneratePayload {
	return GeneratePayload{
		Topic:    "Renewable Energy",
		Subject:  "Physics",
		Level:    "College",
		Length:   "Medium",
		Style:    "Academic",
		Pages:    2,
		Language: "English",
	}
}

func TestCanonicalLanguage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"English", "English"},
		{"english", "English"},
		{"EnglishUK", "EnglishUK"},
		{"english (uk)", "EnglishUK"},
		{"english_us", "English"},
		{"en-GB", "EnglishUK"},
		{"en_GB", "EnglishUK"},
		{"en-US", "English"},
		{"ur", "Urdu"},
		{"ur-PK", "Urdu"},
		{"اردو", "Urdu"},
		{"es-MX", "Spanish"},
		{"fr-FR", "French"},
		{"de", ""},
		{"klingon", ""},
		{"", ""},
		{"  Urdu  ", "Urdu"},
	}
	for _, tc := range tests {
		if got := CanonicalLanguage(tc.raw); got != tc.want {
			t.Errorf("CanonicalLanguage(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeGeneratePayloadDefaults(t *testing.T) {
	p := basePayload()
	p.Language = ""
	got, errs := NormalizeGeneratePayload(p, "ur")
	if len(errs) != 0 {
		t.Fatalf("errs = %+v", errs)
	}
	if got.Language != "Urdu" {
		t.Fatalf("language = %q, want the detected default", got.Language)
	}
	if got.Urgency != "Normal" || got.CitationStyle != "APA" {
		t.Fatalf("defaults not applied: urgency=%q citation=%q", got.Urgency, got.CitationStyle)
	}
	if got.EnglishVariant != "US" {
		t.Fatalf("variant = %q", got.EnglishVariant)
	}
}

func TestNormalizeGeneratePayloadTable(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*GeneratePayload)
		wantField string
		check     func(t *testing.T, got GeneratePayload)
	}{
		{
			name:   "bcp47 language tag canonicalized",
			mutate: func(p *GeneratePayload) { p.Language = "en-GB" },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Language != "EnglishUK" || got.EnglishVariant != "UK" {
					t.Fatalf("language=%q variant=%q", got.Language, got.EnglishVariant)
				}
			},
		},
		{
			name:      "unsupported language rejected",
			mutate:    func(p *GeneratePayload) { p.Language = "klingon" },
			wantField: "language",
		},
		{
			name:   "pages clamped up",
			mutate: func(p *GeneratePayload) { p.Pages = 25 },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Pages != 20 {
					t.Fatalf("pages = %d", got.Pages)
				}
			},
		},
		{
			name:   "zero pages fall back",
			mutate: func(p *GeneratePayload) { p.Pages = 0 },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Pages != 1 {
					t.Fatalf("pages = %d", got.Pages)
				}
			},
		},
		{
			name: "image count clamped with images enabled",
			mutate: func(p *GeneratePayload) {
				p.IncludeImages = true
				p.ImageCount = 9
			},
			check: func(t *testing.T, got GeneratePayload) {
				if got.ImageCount != 5 {
					t.Fatalf("imageCount = %d", got.ImageCount)
				}
			},
		},
		{
			name: "image count defaults to one when enabled",
			mutate: func(p *GeneratePayload) {
				p.IncludeImages = true
				p.ImageCount = 0
			},
			check: func(t *testing.T, got GeneratePayload) {
				if got.ImageCount != 1 {
					t.Fatalf("imageCount = %d", got.ImageCount)
				}
			},
		},
		{
			name: "image count rejected when images disabled",
			mutate: func(p *GeneratePayload) {
				p.IncludeImages = false
				p.ImageCount = 3
			},
			wantField: "imageCount",
		},
		{
			name:   "style alias normalized",
			mutate: func(p *GeneratePayload) { p.Style = "direct_and_concise" },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Style != "Direct and concise" {
					t.Fatalf("style = %q", got.Style)
				}
			},
		},
		{
			name:      "topic required",
			mutate:    func(p *GeneratePayload) { p.Topic = "   " },
			wantField: "topic",
		},
		{
			name:      "level restricted",
			mutate:    func(p *GeneratePayload) { p.Level = "Kindergarten" },
			wantField: "level",
		},
		{
			name:   "seed clamped into range",
			mutate: func(p *GeneratePayload) { p.Seed = 2_000_000_000 },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Seed != 1_000_000_000 {
					t.Fatalf("seed = %d", got.Seed)
				}
			},
		},
		{
			name:   "zero seed left for the server to pick",
			mutate: func(p *GeneratePayload) { p.Seed = 0 },
			check: func(t *testing.T, got GeneratePayload) {
				if got.Seed != 0 {
					t.Fatalf("seed = %d", got.Seed)
				}
			},
		},
		{
			name: "blank uploads dropped and capped",
			mutate: func(p *GeneratePayload) {
				p.Images = []string{"", "data:image/png;base64,a", " ", "data:image/png;base64,b",
					"data:image/png;base64,c", "data:image/png;base64,d", "data:image/png;base64,e",
					"data:image/png;base64,f"}
			},
			check: func(t *testing.T, got GeneratePayload) {
				if len(got.Images) != 5 || got.Images[0] != "data:image/png;base64,a" {
					t.Fatalf("images = %#v", got.Images)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := basePayload()
			tc.mutate(&p)
			got, errs := NormalizeGeneratePayload(p, "English")
			if tc.wantField != "" {
				for _, fe := range errs {
					if fe.Field == tc.wantField {
						return
					}
				}
				t.Fatalf("missing error for %q, got %+v", tc.wantField, errs)
			}
			if len(errs) != 0 {
				t.Fatalf("errs = %+v", errs)
			}
			if tc.check != nil {
				tc.check(t, got)
			}
		})
	}
}

func TestValidateFeedbackTrimsAndBounds(t *testing.T) {
	f := Feedback{JobID: " job-1 ", Rating: 3, Notes: "  good  ", Tags: []string{" a ", ""}}
	if errs := ValidateFeedback(&f); len(errs) != 0 {
		t.Fatalf("errs = %+v", errs)
	}
	if f.JobID != "job-1" || f.Notes != "good" {
		t.Fatalf("not trimmed: %+v", f)
	}
	if len(f.Tags) != 1 || f.Tags[0] != "a" {
		t.Fatalf("tags = %#v", f.Tags)
	}

	bad := Feedback{JobID: "job-1", Rating: 6}
	errs := ValidateFeedback(&bad)
	if len(errs) == 0 || errs[0].Field != "rating" {
		t.Fatalf("errs = %+v", errs)
	}
}
