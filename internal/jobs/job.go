// Package jobs is the durable job record: one documents row and one jobs
// row per job id, kept in PostgreSQL.
package jobs

import (
	"time"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/state"
)

// Job is the pipeline's view of a submission.
type Job struct {
	JobID      string      `json:"job_id"`
	Filename   string      `json:"filename"`
	Mime       string      `json:"mime"`
	SourceURI  string      `json:"source_uri"`
	Status     state.State `json:"status"`
	Progress   int         `json:"progress"`
	Stage      string      `json:"stage"`
	DocumentID *int64      `json:"document_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Snapshot converts j to the shared read model.
func (j Job) Snapshot() state.Snapshot {
	return state.Snapshot{
		JobID:     j.JobID,
		Filename:  j.Filename,
		Status:    j.Status,
		Progress:  j.Progress,
		Stage:     j.Stage,
		SourceURI: j.SourceURI,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// Document holds the extraction results for a job.
type Document struct {
	ID        int64            `json:"id"`
	JobID     string           `json:"job_id"`
	Filename  string           `json:"filename"`
	Mime      string           `json:"mime"`
	SourceURI string           `json:"source_uri"`
	Status    state.State      `json:"status"`
	Text      string           `json:"text"`
	Entities  []extract.Entity `json:"entities"`
	Tags      []string         `json:"tags"`
	UserID    *int64           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CreateCommand records a new submission from its initial snapshot.
type CreateCommand struct {
	Snapshot state.Snapshot
	Mime     string
	UserID   *int64
}

// Result is the output of a successful pipeline run.
type Result struct {
	Text     string
	Entities []extract.Entity
	Tags     []string
}
