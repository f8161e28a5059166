package main

import (
	"errors"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/infrastructure"
	"github.com/JaimeStill/smart-ocr/internal/pipeline"
)

// Worker runs the queue consumer over the pipeline orchestrator.
type Worker struct {
	infra        *infrastructure.Infrastructure
	orchestrator *pipeline.Orchestrator
	workers      int
}

func NewWorker(cfg *config.Config) (*Worker, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	pc := cfg.Pipeline
	extractor := extract.New(
		pc.Extract(),
		infra.Storage,
		extract.NewTesseract(extract.ExecRunner{}, pc.TesseractBinary, pc.TesseractLanguage, infra.Logger),
		extract.NewPDFRasterizer(pc.RasterDPI),
		extract.Prose{},
		infra.Logger,
	)

	return &Worker{
		infra:        infra,
		orchestrator: infra.Orchestrator(extractor),
		workers:      cfg.Queue.Workers,
	}, nil
}

// Start connects the stores and launches the consumer pool.
func (w *Worker) Start() error {
	w.infra.Logger.Info("starting worker", "workers", w.workers)

	if err := w.infra.Start(); err != nil {
		return err
	}

	w.infra.Queue.Start(w.infra.Lifecycle, w.orchestrator.Process)

	go func() {
		w.infra.Lifecycle.WaitForStartup()
		w.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown stops dequeuing, lets in-flight jobs finish and closes the stores.
func (w *Worker) Shutdown(timeout time.Duration) error {
	w.infra.Logger.Info("initiating shutdown")
	err := w.infra.Lifecycle.Shutdown(timeout)
	return errors.Join(err, w.infra.Close())
}
