package pipeline

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/queue"
	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/internal/tags"
)

// Process runs the extraction stages for task. It is safe to call again for
// the same job: a COMPLETED job is acknowledged without work, and a job left
// mid-flight or FAILED restarts from OCR with its previous results cleared.
func (o *Orchestrator) Process(ctx context.Context, task queue.Task) error {
	logger := o.logger.With("job_id", task.JobID)

	job, err := o.durable.Find(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			logger.Warn("task for unknown job, dropping")
			return nil
		}
		return fmt.Errorf("process: %w", err)
	}

	if job.Status == state.Completed {
		logger.Info("job already completed, skipping")
		if err := o.status.Update(ctx, job.JobID, state.Enter(state.Completed)); err != nil {
			logger.Warn("status cache resync failed", "error", err)
		}
		return nil
	}
	if !job.Status.Reprocessable() {
		return fmt.Errorf("process: %w: cannot start from %s", ErrInvalidTransition, job.Status)
	}

	sourceURI := job.SourceURI
	if sourceURI == "" {
		sourceURI = task.SourceURI
	}
	filename := job.Filename
	if filename == "" {
		filename = task.Filename
	}

	if err := o.apply(ctx, job.JobID, state.Enter(state.OCRInProgress)); err != nil {
		o.fail(ctx, job.JobID, err)
		return fmt.Errorf("process: %w", err)
	}
	logger.Info("extraction started", "attempt", task.Attempts+1)

	text, err := o.extractor.Text(ctx, job.JobID, sourceURI, filename)
	if err != nil {
		return o.stageFailed(ctx, job.JobID, err)
	}

	if err := o.apply(ctx, job.JobID, state.Enter(state.NLPInProgress)); err != nil {
		o.fail(ctx, job.JobID, err)
		return fmt.Errorf("process: %w", err)
	}

	analysis, err := o.extractor.Analyze(ctx, text)
	if err != nil {
		return o.stageFailed(ctx, job.JobID, err)
	}

	// Entities and tags see the full text; only the stored copy is bounded.
	result := jobs.Result{
		Text:     state.Truncate(text, MaxTextRunes),
		Entities: analysis.Entities,
		Tags:     tags.Extract(text, analysis.Entities, analysis.NounChunks),
	}

	if err := o.durable.Complete(ctx, job.JobID, result); err != nil {
		o.fail(ctx, job.JobID, err)
		return fmt.Errorf("process: complete: %w", err)
	}
	if err := o.status.Update(ctx, job.JobID, state.Enter(state.Completed)); err != nil {
		return fmt.Errorf("process: %w", err)
	}

	logger.Info("job completed", "chars", utf8.RuneCountInString(text), "tags", len(result.Tags))
	return nil
}

func (o *Orchestrator) stageFailed(ctx context.Context, jobID string, err error) error {
	serr := stageError(err)
	o.fail(ctx, jobID, serr)
	return serr
}
