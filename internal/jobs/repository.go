package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/pkg/pagination"
	"github.com/JaimeStill/smart-ocr/pkg/query"
	"github.com/JaimeStill/smart-ocr/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the durable job repository.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "jobs"),
		pagination: pagination,
	}
}

// Create inserts the document and job rows for a submission in one
// transaction.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Job, error) {
	snap := cmd.Snapshot

	insertDoc := `INSERT INTO documents(job_id, filename, mime, source_uri, status, user_id, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	insertJob := fmt.Sprintf(`INSERT INTO jobs(job_id, filename, mime, source_uri, status, progress, stage, document_id, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, jobProjection.Returning())

	job, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Job, error) {
		var docID int64
		err := tx.QueryRowContext(ctx, insertDoc,
			snap.JobID, snap.Filename, cmd.Mime, snap.SourceURI, string(snap.Status),
			nullable(cmd.UserID), snap.CreatedAt, snap.UpdatedAt,
		).Scan(&docID)
		if err != nil {
			return Job{}, err
		}

		return repository.QueryOne(ctx, tx, insertJob, []any{
			snap.JobID, snap.Filename, cmd.Mime, snap.SourceURI, string(snap.Status),
			snap.Progress, snap.Stage, docID, snap.CreatedAt, snap.UpdatedAt,
		}, scanJob)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("job created", "job_id", job.JobID, "filename", job.Filename)
	return &job, nil
}

// Apply writes u to the job row and mirrors status and source_uri onto the
// document row. Progress only moves forward. Entering OCR_IN_PROGRESS
// clears any previous results.
func (r *repo) Apply(ctx context.Context, jobID string, u state.Update) error {
	if u.IsZero() {
		return nil
	}

	updateJob := `UPDATE jobs SET
		status = COALESCE($2, status),
		progress = GREATEST(progress, COALESCE($3, progress)),
		stage = COALESCE($4, stage),
		source_uri = COALESCE($5, source_uri),
		updated_at = GREATEST(NOW(), created_at)
		WHERE job_id = $1`

	updateDoc := `UPDATE documents SET
		status = COALESCE($2, status),
		source_uri = COALESCE($3, source_uri),
		updated_at = GREATEST(NOW(), created_at)
		WHERE job_id = $1`

	clearResults := `UPDATE documents SET text = NULL, entities_json = NULL, tags_json = NULL
		WHERE job_id = $1`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		status := nullableState(u.Status)
		if err := repository.ExecExpectOne(ctx, tx, updateJob,
			jobID, status, nullable(u.Progress), nullable(u.Stage), nullable(u.SourceURI),
		); err != nil {
			return struct{}{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx, updateDoc,
			jobID, status, nullable(u.SourceURI),
		); err != nil {
			return struct{}{}, err
		}

		if u.Status == state.OCRInProgress {
			if _, err := tx.ExecContext(ctx, clearResults, jobID); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("job updated", "job_id", jobID, "status", u.Status)
	return nil
}

// Delete removes the job and document rows of jobID in one transaction.
// Deleting an unknown job is not an error.
func (r *repo) Delete(ctx context.Context, jobID string) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID); err != nil {
			return struct{}{}, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE job_id = $1`, jobID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}

	r.logger.Info("job deleted", "job_id", jobID)
	return nil
}

// Complete stores the results and marks both rows COMPLETED.
func (r *repo) Complete(ctx context.Context, jobID string, result Result) error {
	entities, err := json.Marshal(emptyIfNil(result.Entities))
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	tags, err := json.Marshal(emptyIfNil(result.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	done := state.Enter(state.Completed)

	updateDoc := `UPDATE documents SET
		status = $2, text = $3, entities_json = $4, tags_json = $5,
		updated_at = GREATEST(NOW(), created_at)
		WHERE job_id = $1
		RETURNING id`

	updateJob := `UPDATE jobs SET
		status = $2, progress = GREATEST(progress, $3), stage = $4, document_id = $5,
		updated_at = GREATEST(NOW(), created_at)
		WHERE job_id = $1`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var docID int64
		if err := tx.QueryRowContext(ctx, updateDoc,
			jobID, string(done.Status), result.Text, string(entities), string(tags),
		).Scan(&docID); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, repository.ExecExpectOne(ctx, tx, updateJob,
			jobID, string(done.Status), *done.Progress, *done.Stage, docID,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("job completed", "job_id", jobID, "tags", len(result.Tags), "entities", len(result.Entities))
	return nil
}

func (r *repo) Find(ctx context.Context, jobID string) (*Job, error) {
	q, args := query.NewBuilder(jobProjection).BuildSingle("job_id", jobID)

	job, err := repository.QueryOne(ctx, r.db, q, args, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &job, nil
}

func (r *repo) FindDocument(ctx context.Context, jobID string) (*Document, error) {
	q, args := query.NewBuilder(documentProjection).BuildSingle("job_id", jobID)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(jobProjection, defaultSort).
		WhereSearch(page.Search, "filename", "job_id")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	jobs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	result := pagination.NewPageResult(jobs, total, page)
	return &result, nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
