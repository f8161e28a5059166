// Package pipeline orchestrates a job through the state machine. Every
// transition is applied to the durable record first and then to the status
// cache; a durable failure stops the step before the cache is touched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/queue"
	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/internal/status"
)

// MaxTextRunes bounds the stored recognized text.
const MaxTextRunes = 100_000

// failWriteTimeout bounds the writes that record a failure after the
// job's own context may already be done.
const failWriteTimeout = 10 * time.Second

// Durable is the subset of the job repository the orchestrator needs.
type Durable interface {
	Create(ctx context.Context, cmd jobs.CreateCommand) (*jobs.Job, error)
	Apply(ctx context.Context, jobID string, u state.Update) error
	Complete(ctx context.Context, jobID string, result jobs.Result) error
	Delete(ctx context.Context, jobID string) error
	Find(ctx context.Context, jobID string) (*jobs.Job, error)
	FindDocument(ctx context.Context, jobID string) (*jobs.Document, error)
}

// Blobs stores uploaded source files.
type Blobs interface {
	Put(ctx context.Context, r io.Reader, key, contentType string) (string, error)
	Delete(ctx context.Context, uri string) error
}

// Enqueuer hands a job to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

// Extractor runs the text and entity stages.
type Extractor interface {
	Text(ctx context.Context, jobID, sourceURI, filename string) (string, error)
	Analyze(ctx context.Context, text string) (extract.Analysis, error)
}

// Deps groups the orchestrator's collaborators. Blobs and Queue are only
// needed for submission; Extractor only for processing.
type Deps struct {
	Durable   Durable
	Status    status.Store
	Blobs     Blobs
	Queue     Enqueuer
	Extractor Extractor
}

// Orchestrator drives jobs through the pipeline.
type Orchestrator struct {
	durable   Durable
	status    status.Store
	blobs     Blobs
	queue     Enqueuer
	extractor Extractor
	logger    *slog.Logger
}

// New returns an Orchestrator.
func New(deps Deps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		durable:   deps.Durable,
		status:    deps.Status,
		blobs:     deps.Blobs,
		queue:     deps.Queue,
		extractor: deps.Extractor,
		logger:    logger.With("system", "pipeline"),
	}
}

// SubmitCommand describes an incoming upload.
type SubmitCommand struct {
	Filename string
	Mime     string
	Size     int64
	UserID   *int64
}

// Result is the outcome of a job as seen by clients. When Ready is false
// only Snapshot is populated.
type Result struct {
	Ready    bool             `json:"ready"`
	Snapshot state.Snapshot   `json:"snapshot"`
	Text     string           `json:"text,omitempty"`
	Entities []extract.Entity `json:"entities,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

// Submit validates the upload and records a RECEIVED job in both stores.
// Nothing is created when validation fails, and nothing is left behind
// when the durable write fails.
func (o *Orchestrator) Submit(ctx context.Context, cmd SubmitCommand) (state.Snapshot, error) {
	filename := SanitizeFilename(cmd.Filename)
	if filename == "" {
		return state.Snapshot{}, fmt.Errorf("%w: filename is empty", ErrValidation)
	}
	if cmd.Size == 0 {
		return state.Snapshot{}, fmt.Errorf("%w: upload is empty", ErrValidation)
	}

	snap, err := o.status.Create(ctx, filename)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("submit: %w", err)
	}

	_, err = o.durable.Create(ctx, jobs.CreateCommand{
		Snapshot: snap,
		Mime:     extract.MimeType(filename, cmd.Mime),
		UserID:   cmd.UserID,
	})
	if err != nil {
		o.forget(ctx, snap.JobID)
		return state.Snapshot{}, fmt.Errorf("submit: %w", err)
	}

	o.logger.Info("job submitted", "job_id", snap.JobID, "filename", filename, "size", cmd.Size)
	return snap, nil
}

// Upload stores the source file, marks the job QUEUED and enqueues it.
// Submission is all-or-nothing: on any failure the job, its cached
// snapshot and the stored blob are removed.
func (o *Orchestrator) Upload(ctx context.Context, snap state.Snapshot, body io.Reader, mime string) (state.Snapshot, error) {
	jobID := snap.JobID

	if err := o.Advance(ctx, jobID, state.Enter(state.Uploading)); err != nil {
		o.rollback(ctx, jobID, "")
		return state.Snapshot{}, fmt.Errorf("upload: %w", err)
	}

	uri, err := o.blobs.Put(ctx, body, BlobKey(jobID, snap.Filename), extract.MimeType(snap.Filename, mime))
	if err != nil {
		o.rollback(ctx, jobID, "")
		return state.Snapshot{}, fmt.Errorf("upload: %w", err)
	}

	queued := state.Enter(state.Queued).WithSourceURI(uri)
	if err := o.Advance(ctx, jobID, queued); err != nil {
		o.rollback(ctx, jobID, uri)
		return state.Snapshot{}, fmt.Errorf("upload: %w", err)
	}

	task := queue.Task{JobID: jobID, SourceURI: uri, Filename: snap.Filename}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		o.rollback(ctx, jobID, uri)
		return state.Snapshot{}, fmt.Errorf("upload: %w", err)
	}

	o.logger.Info("job queued", "job_id", jobID, "source_uri", uri)
	return queued.Apply(snap), nil
}

// Ingest runs Submit followed by Upload.
func (o *Orchestrator) Ingest(ctx context.Context, cmd SubmitCommand, body io.Reader) (state.Snapshot, error) {
	snap, err := o.Submit(ctx, cmd)
	if err != nil {
		return state.Snapshot{}, err
	}
	return o.Upload(ctx, snap, body, cmd.Mime)
}

// Advance applies u to both stores after checking the transition against
// the durable state.
func (o *Orchestrator) Advance(ctx context.Context, jobID string, u state.Update) error {
	if u.Status != "" {
		job, err := o.durable.Find(ctx, jobID)
		if err != nil {
			return o.notFound(err)
		}
		if u.Status != job.Status && !state.CanTransition(job.Status, u.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, u.Status)
		}
	}
	return o.apply(ctx, jobID, u)
}

// Snapshot returns the cached status, falling back to the durable record
// when the cache misses or is unreachable.
func (o *Orchestrator) Snapshot(ctx context.Context, jobID string) (state.Snapshot, error) {
	snap, found, err := o.status.Get(ctx, jobID)
	if err != nil {
		o.logger.Warn("status cache read failed, using durable record", "job_id", jobID, "error", err)
	}
	if found {
		return snap, nil
	}

	job, err := o.durable.Find(ctx, jobID)
	if err != nil {
		return state.Snapshot{}, o.notFound(err)
	}
	return job.Snapshot(), nil
}

// Result returns extraction output once the job has completed.
func (o *Orchestrator) Result(ctx context.Context, jobID string) (Result, error) {
	doc, err := o.durable.FindDocument(ctx, jobID)
	if err != nil {
		return Result{}, o.notFound(err)
	}

	snap, err := o.Snapshot(ctx, jobID)
	if err != nil {
		return Result{}, err
	}

	if doc.Status != state.Completed {
		return Result{Ready: false, Snapshot: snap}, nil
	}

	return Result{
		Ready:    true,
		Snapshot: snap,
		Text:     doc.Text,
		Entities: doc.Entities,
		Tags:     doc.Tags,
	}, nil
}

// Source returns the blob URI of a job's uploaded file.
func (o *Orchestrator) Source(ctx context.Context, jobID string) (string, error) {
	job, err := o.durable.Find(ctx, jobID)
	if err != nil {
		return "", o.notFound(err)
	}
	if job.SourceURI == "" {
		return "", fmt.Errorf("%w: source not uploaded", ErrNotFound)
	}
	return job.SourceURI, nil
}

func (o *Orchestrator) apply(ctx context.Context, jobID string, u state.Update) error {
	if err := o.durable.Apply(ctx, jobID, u); err != nil {
		return fmt.Errorf("durable update: %w", o.notFound(err))
	}
	if err := o.status.Update(ctx, jobID, u); err != nil {
		return fmt.Errorf("status update: %w", err)
	}
	return nil
}

// fail records cause as a FAILED transition in both stores. It runs on a
// context detached from ctx's cancellation so a timed-out job still
// reaches a terminal state.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	u := state.Fail(cause)
	if err := o.durable.Apply(wctx, jobID, u); err != nil {
		o.logger.Error("record failure in durable store", "job_id", jobID, "error", err)
	} else if err := o.status.Update(wctx, jobID, u); err != nil {
		o.logger.Error("record failure in status cache", "job_id", jobID, "error", err)
	}
	o.logger.Error("job failed", "job_id", jobID, "error", cause)
}

// rollback undoes a submission that never reached the queue. The durable
// rows go first so the cache is never the only record of the job. When
// they cannot be removed the job is marked FAILED instead and the blob is
// kept for the surviving record.
func (o *Orchestrator) rollback(ctx context.Context, jobID, uri string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	if err := o.durable.Delete(wctx, jobID); err != nil {
		o.logger.Error("roll back durable record", "job_id", jobID, "error", err)
		o.fail(ctx, jobID, fmt.Errorf("submission rolled back: %w", err))
		return
	}
	o.forget(wctx, jobID)
	if uri != "" {
		if err := o.blobs.Delete(wctx, uri); err != nil {
			o.logger.Warn("discard orphaned blob", "job_id", jobID, "uri", uri, "error", err)
		}
	}
	o.logger.Warn("submission rolled back", "job_id", jobID)
}

// forget drops the cached snapshot of a job the durable store does not hold.
func (o *Orchestrator) forget(ctx context.Context, jobID string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failWriteTimeout)
	defer cancel()

	if err := o.status.Delete(wctx, jobID); err != nil {
		o.logger.Error("drop cached snapshot", "job_id", jobID, "error", err)
	}
}

func (o *Orchestrator) notFound(err error) error {
	if errors.Is(err, jobs.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
