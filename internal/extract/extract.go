// Package extract runs the text extraction stages of the pipeline: fetching
// the source blob, recognizing text and finding entities.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher copies a stored blob to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, uri, localPath string) error
}

// Config bounds each stage with its own deadline. Zero disables the bound.
type Config struct {
	FetchTimeout     time.Duration
	RecognizeTimeout time.Duration
	EntitiesTimeout  time.Duration
	ScratchDir       string
}

// Analysis is the output of the entities stage.
type Analysis struct {
	Entities   []Entity
	NounChunks []string
}

// Extractor wires the stage collaborators together.
type Extractor struct {
	cfg        Config
	fetcher    Fetcher
	recognizer Recognizer
	rasterizer Rasterizer
	entities   EntityRecognizer
	logger     *slog.Logger
}

// New returns an Extractor.
func New(cfg Config, fetcher Fetcher, recognizer Recognizer, rasterizer Rasterizer, entities EntityRecognizer, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:        cfg,
		fetcher:    fetcher,
		recognizer: recognizer,
		rasterizer: rasterizer,
		entities:   entities,
		logger:     logger.With("system", "extract"),
	}
}

// Text fetches the blob at sourceURI into a scratch directory and
// recognizes its text. Unsupported file types yield empty text. The
// scratch directory is removed before returning.
func (e *Extractor) Text(ctx context.Context, jobID, sourceURI, filename string) (string, error) {
	scratch, err := os.MkdirTemp(e.cfg.ScratchDir, "smart-ocr-"+jobID+"-")
	if err != nil {
		return "", fmt.Errorf("%w: scratch dir: %w", ErrFetch, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			e.logger.Warn("scratch cleanup failed", "job_id", jobID, "dir", scratch, "error", err)
		}
	}()

	local := filepath.Join(scratch, localName(filename))
	if err := e.fetch(ctx, sourceURI, local); err != nil {
		return "", err
	}

	kind := Detect(filename)
	e.logger.Debug("fetched source", "job_id", jobID, "kind", kind)

	rctx, cancel := withTimeout(ctx, e.cfg.RecognizeTimeout)
	defer cancel()

	switch kind {
	case KindPDF:
		return e.recognizePDF(rctx, local, scratch)
	case KindImage:
		text, err := e.recognizer.Recognize(rctx, local)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRecognize, err)
		}
		return text, nil
	default:
		e.logger.Info("unsupported file type, skipping recognition", "job_id", jobID, "filename", filename)
		return "", nil
	}
}

// Analyze runs entity recognition and noun chunking over text.
func (e *Extractor) Analyze(ctx context.Context, text string) (Analysis, error) {
	ctx, cancel := withTimeout(ctx, e.cfg.EntitiesTimeout)
	defer cancel()

	analysis, err := e.entities.Analyze(ctx, text)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrEntities, err)
	}

	if err := ctx.Err(); err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrEntities, err)
	}
	return analysis, nil
}

func (e *Extractor) fetch(ctx context.Context, uri, local string) error {
	ctx, cancel := withTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	if err := e.fetcher.Fetch(ctx, uri, local); err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return nil
}

func (e *Extractor) recognizePDF(ctx context.Context, pdfPath, scratch string) (string, error) {
	pages, err := e.rasterizer.Rasterize(ctx, pdfPath, scratch)
	if err != nil {
		return "", fmt.Errorf("%w: rasterize: %w", ErrRecognize, err)
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		text, err := e.recognizer.Recognize(ctx, page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrRecognize, i+1, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n"), nil
}

func localName(filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "source"
	}
	return name
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
