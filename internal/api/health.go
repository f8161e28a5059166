package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/smart-ocr/pkg/handlers"
	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/JaimeStill/smart-ocr/pkg/routes"
)

const healthTimeout = 3 * time.Second

// HealthFunc pings backing services and reports each by name.
type HealthFunc func(ctx context.Context) (map[string]string, error)

type healthHandler struct {
	check  HealthFunc
	ready  lifecycle.ReadinessChecker
	logger *slog.Logger
}

func (h *healthHandler) routes() []routes.Route {
	return []routes.Route{
		{Method: "GET", Pattern: "/healthz", Handler: h.live},
		{Method: "GET", Pattern: "/readyz", Handler: h.readiness},
		{Method: "GET", Pattern: "/api/health", Handler: h.health},
		{Method: "GET", Pattern: "/api/dbhealth", Handler: h.dependencies},
	}
}

func (h *healthHandler) live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dependencies answers 500 when any backing service fails its ping.
func (h *healthHandler) dependencies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	report, err := h.check(ctx)
	if err != nil {
		h.logger.Warn("dependency check failed", "error", err)
		handlers.RespondJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"checks": report,
		})
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"checks": report,
	})
}
