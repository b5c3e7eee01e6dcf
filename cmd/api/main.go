package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AyoubKhan990/teach-flow-lms/internal/adapter/repo"
	"github.com/AyoubKhan990/teach-flow-lms/internal/export"
	"github.com/AyoubKhan990/teach-flow-lms/internal/feedback"
	"github.com/AyoubKhan990/teach-flow-lms/internal/http/handlers"
	"github.com/AyoubKhan990/teach-flow-lms/internal/http/httpapi"
	"github.com/AyoubKhan990/teach-flow-lms/internal/infra"
	"github.com/AyoubKhan990/teach-flow-lms/internal/infra/geoip"
	"github.com/AyoubKhan990/teach-flow-lms/internal/jobstore"
	"github.com/AyoubKhan990/teach-flow-lms/internal/middleware"
	"github.com/AyoubKhan990/teach-flow-lms/internal/providers/content"
	"github.com/AyoubKhan990/teach-flow-lms/internal/providers/image"
	"github.com/AyoubKhan990/teach-flow-lms/internal/runner"
	"github.com/AyoubKhan990/teach-flow-lms/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Job archive is optional; without a database terminal jobs simply expire
	// from the in-memory registry.
	var archive *repo.JobArchivePG
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		archive = repo.NewJobArchive(pool)
		logger.Info().Msg("job archive enabled")
	}

	var countryLookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip resolver disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	contentGen := buildContentGenerator(cfg, logger)
	images := buildImagePipeline(cfg, logger)

	store := jobstore.New(jobstore.Config{
		TTL:           cfg.JobTTL,
		MaxEvents:     cfg.JobMaxEvents,
		SweepInterval: cfg.JobSweepInterval,
	}, logger)
	go store.Run(ctx)

	runnerOpts := runner.Options{
		Store:   store,
		Content: contentGen,
		Images:  images,
		Logger:  logger,
		Config: runner.Config{
			MaxAttempts:     cfg.JobMaxAttempts,
			BackoffBase:     cfg.JobBackoffBase,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		BaseContext: ctx,
	}
	if archive != nil {
		runnerOpts.Archive = archive
	}
	jobRunner := runner.New(runnerOpts)

	fileStore, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage directory")
	}
	commands := map[string][]string{}
	if len(cfg.ExportPDFCmd) > 0 {
		commands["pdf"] = cfg.ExportPDFCmd
	}
	if len(cfg.ExportDocxCmd) > 0 {
		commands["docx"] = cfg.ExportDocxCmd
	}
	exporter := export.NewCommandExporter(export.CommandExporterOptions{
		Commands: commands,
		Store:    fileStore,
		Logger:   logger,
	})

	app := &handlers.App{
		Log:       logger,
		Store:     store,
		Runner:    jobRunner,
		Images:    images,
		Feedback:  feedback.NewStore(cfg.FeedbackMaxEntries),
		Exporter:  exporter,
		Heartbeat: cfg.SSEHeartbeat,
	}
	if archive != nil {
		app.Archive = archive
	}

	router := httpapi.NewRouter(httpapi.RouterOptions{
		App:             app,
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLanguage: cfg.DefaultLanguage,
		Country:         countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("content_provider", contentGen.Name()).
			Str("image_provider", images.Provider()).
			Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildContentGenerator picks the drafting provider. The deterministic
// template generator always sits at the end of the chain so content
// generation works without any API key.
func buildContentGenerator(cfg *infra.Config, logger infra.Logger) content.Generator {
	template := content.NewTemplateGenerator()

	provider := cfg.ContentProvider
	if provider == "auto" {
		switch {
		case cfg.GeminiAPIKey != "":
			provider = "gemini"
		case cfg.OpenAIAPIKey != "":
			provider = "openai"
		default:
			provider = "template"
		}
	}

	switch provider {
	case "gemini":
		gen, err := content.NewGeminiGenerator(content.GeminiOptions{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			BaseURL:  cfg.GeminiBaseURL,
			Fallback: template,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("gemini content generator unavailable, using template")
			return template
		}
		return gen
	case "openai":
		gen, err := content.NewOpenAIGenerator(content.OpenAIOptions{
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
			Fallback: template,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai content generator unavailable, using template")
			return template
		}
		return gen
	default:
		return template
	}
}

// buildImagePipeline wires the image generator matching the configured key's
// format. A pipeline without a generator still runs and reports missing_key.
func buildImagePipeline(cfg *infra.Config, logger infra.Logger) *image.Pipeline {
	opts := image.PipelineOptions{
		APIKey:      cfg.ImageAPIKey,
		AspectRatio: cfg.ImageAspectRatio,
		Logger:      logger,
	}
	if cfg.ImageAPIKey != "" {
		switch image.ProviderForKey(cfg.ImageAPIKey) {
		case "openai":
			gen, err := image.NewOpenAIGenerator(image.OpenAIOptions{
				APIKey: cfg.ImageAPIKey,
				Model:  cfg.ImageModel,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("openai image generator unavailable")
			} else {
				opts.Generator = gen
			}
		default:
			gen, err := image.NewGoogleGenerator(image.GoogleOptions{
				APIKey: cfg.ImageAPIKey,
				Model:  cfg.ImageModel,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("google image generator unavailable")
			} else {
				opts.Generator = gen
			}
		}
	}
	return image.NewPipeline(opts)
}
