package api

import (
	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/pipeline"
	"github.com/JaimeStill/smart-ocr/internal/state"
)

type UploadResponse struct {
	JobID string `json:"job_id"`
}

type DownloadResponse struct {
	JobID     string `json:"job_id"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// PendingResponse answers a result request for a job that has not completed.
type PendingResponse struct {
	Ready    bool        `json:"ready"`
	JobID    string      `json:"job_id"`
	Status   state.State `json:"status"`
	Progress int         `json:"progress"`
	Stage    string      `json:"stage"`
}

// ReadyResponse carries the extraction output of a completed job.
type ReadyResponse struct {
	PendingResponse
	Text     string           `json:"text"`
	Entities []extract.Entity `json:"entities"`
	Tags     []string         `json:"tags"`
}

func pendingResponse(snap state.Snapshot) PendingResponse {
	return PendingResponse{
		Ready:    false,
		JobID:    snap.JobID,
		Status:   snap.Status,
		Progress: snap.Progress,
		Stage:    snap.Stage,
	}
}

func readyResponse(res pipeline.Result) ReadyResponse {
	out := ReadyResponse{
		PendingResponse: pendingResponse(res.Snapshot),
		Text:            res.Text,
		Entities:        res.Entities,
		Tags:            res.Tags,
	}
	out.Ready = true
	if out.Entities == nil {
		out.Entities = []extract.Entity{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}
