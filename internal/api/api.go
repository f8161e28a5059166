package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/internal/storage"
	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/JaimeStill/smart-ocr/pkg/middleware"
	"github.com/JaimeStill/smart-ocr/pkg/routes"
)

// Deps are the systems the gateway serves from.
type Deps struct {
	Pipeline Pipeline
	Jobs     Lister
	Storage  Signer
	Health   HealthFunc
	Ready    lifecycle.ReadinessChecker
	Logger   *slog.Logger
}

// NewRouter registers every gateway route and wraps the mux in the
// middleware stack.
func NewRouter(deps Deps, cfg *config.Config) http.Handler {
	logger := deps.Logger.With("system", "api")

	jobs := NewHandler(deps.Pipeline, deps.Jobs, deps.Storage, Options{
		MaxUploadSize: cfg.Storage.MaxUploadSizeBytes(),
		MaxPages:      cfg.Pipeline.MaxPages,
		SignedURLTTL:  cfg.Storage.SignedURLTTLDuration(),
		Pagination:    cfg.Pagination,
	}, logger)

	health := &healthHandler{check: deps.Health, ready: deps.Ready, logger: logger}

	r := routes.New(logger)
	r.RegisterGroup(jobs.Routes())
	for _, route := range health.routes() {
		r.RegisterRoute(route)
	}

	if opener, ok := deps.Storage.(storage.SignedOpener); ok {
		blobs := &blobHandler{opener: opener, logger: logger}
		for _, route := range blobs.routes() {
			r.RegisterRoute(route)
		}
	}

	mw := middleware.New()
	mw.Use(middleware.TrimSlash())
	mw.Use(middleware.Logger(logger))
	mw.Use(middleware.CORS(&cfg.CORS))

	return mw.Apply(r.Build())
}
