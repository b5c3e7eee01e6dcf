// Package httpapi assembles the chi router and the middleware chain around
// the handlers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/AyoubKhan990/teach-flow-lms/internal/http/handlers"
	"github.com/AyoubKhan990/teach-flow-lms/internal/middleware"
)

// RouterOptions carry the cross-cutting configuration the middleware chain
// needs alongside the handler set.
type RouterOptions struct {
	App             *handlers.App
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLanguage string
	Country         middleware.CountryLookup
}

func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}
	r.Use(middleware.Locale(opts.DefaultLanguage, opts.Country))

	app := opts.App

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", app.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetJob)
				r.Get("/events", app.JobEvents)
				r.Get("/images.zip", app.ImagesZip)
				r.Post("/cancel", app.CancelJob)
				r.Post("/retry-images", app.RetryImages)
				r.Post("/resolve-no-images", app.ResolveNoImages)
				r.Post("/upload-images", app.UploadImages)
			})
		})

		r.Post("/feedback", app.CreateFeedback)
		r.Post("/download/{format}", app.Download)

		r.Route("/monitoring", func(r chi.Router) {
			r.Get("/image-generation", app.ImageGenerationStatus)
			r.Get("/feedback", app.RecentFeedback)
			r.Get("/archive", app.RecentArchive)
			r.Get("/archive/{id}", app.ArchivedJob)
		})
	})

	return r
}
