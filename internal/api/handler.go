// Package api exposes the job pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/pipeline"
	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/pkg/handlers"
	"github.com/JaimeStill/smart-ocr/pkg/pagination"
	"github.com/JaimeStill/smart-ocr/pkg/routes"
)

// multipartOverhead is allowed on top of the upload limit for form
// boundaries and part headers.
const multipartOverhead = 1 << 20

var (
	ErrMissingFile  = errors.New("missing file field")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidPDF   = errors.New("file is not a readable pdf")
	ErrTooManyPages = errors.New("pdf exceeds maximum page count")
)

// Pipeline is the orchestrator surface used by the gateway.
type Pipeline interface {
	Ingest(ctx context.Context, cmd pipeline.SubmitCommand, body io.Reader) (state.Snapshot, error)
	Snapshot(ctx context.Context, jobID string) (state.Snapshot, error)
	Result(ctx context.Context, jobID string) (pipeline.Result, error)
	Source(ctx context.Context, jobID string) (string, error)
}

// Lister pages through durable job records.
type Lister interface {
	List(ctx context.Context, page pagination.PageRequest, filters jobs.Filters) (*pagination.PageResult[jobs.Job], error)
}

// Signer issues download URLs for stored blobs.
type Signer interface {
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)
}

// Options carries the gateway limits.
type Options struct {
	MaxUploadSize int64
	MaxPages      int
	SignedURLTTL  time.Duration
	Pagination    pagination.Config
}

// Handler serves the job endpoints.
type Handler struct {
	pipeline Pipeline
	jobs     Lister
	signer   Signer
	pages    *pagination.Parser
	opts     Options
	logger   *slog.Logger
}

func NewHandler(p Pipeline, lister Lister, signer Signer, opts Options, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: p,
		jobs:     lister,
		signer:   signer,
		pages:    jobs.NewPageParser(opts.Pagination),
		opts:     opts,
		logger:   logger.With("handler", "jobs"),
	}
}

// Routes returns the job endpoint group, mounted under /api.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/api",
		Description: "Document upload, job status and results",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "GET", Pattern: "/status/{id}", Handler: h.Status},
			{Method: "GET", Pattern: "/result/{id}", Handler: h.Result},
			{Method: "GET", Pattern: "/download/{id}", Handler: h.Download},
			{Method: "GET", Pattern: "/jobs", Handler: h.List},
		},
	}
}

// Upload accepts a multipart "file" part, stores it and queues the job.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrMissingFile)
		return
	}
	defer file.Close()

	if header.Size > h.opts.MaxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	if extract.Detect(header.Filename) == extract.KindPDF && header.Size > 0 {
		if err := h.checkPages(file); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	snap, err := h.pipeline.Ingest(r.Context(), pipeline.SubmitCommand{
		Filename: header.Filename,
		Mime:     header.Header.Get("Content-Type"),
		Size:     header.Size,
	}, file)
	if err != nil {
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, UploadResponse{JobID: snap.JobID})
}

func (h *Handler) checkPages(file io.ReadSeeker) error {
	pages, err := extract.PageCount(file)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}
	if h.opts.MaxPages > 0 && pages > h.opts.MaxPages {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPages, pages, h.opts.MaxPages)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	return nil
}

// Status returns the current snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.pipeline.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, snap)
}

// Result answers 202 while the job is still running or has failed and
// 200 with the extraction output once it has completed.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipeline.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}

	if !res.Ready {
		handlers.RespondJSON(w, http.StatusAccepted, pendingResponse(res.Snapshot))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, readyResponse(res))
}

// Download returns a time-limited URL for the uploaded source file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	uri, err := h.pipeline.Source(r.Context(), jobID)
	if err != nil {
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}

	url, err := h.signer.SignedURL(r.Context(), uri, h.opts.SignedURLTTL)
	if err != nil {
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, DownloadResponse{
		JobID:     jobID,
		URL:       url,
		ExpiresIn: int(h.opts.SignedURLTTL.Seconds()),
	})
}

// List pages through jobs, newest first, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filters, err := jobs.FiltersFromQuery(values)
	if err != nil {
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return
	}

	page, err := h.pages.Parse(values)
	if err != nil {
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return
	}

	result, err := h.jobs.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
