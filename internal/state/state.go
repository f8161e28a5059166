// Package state defines the job state machine shared by the status cache,
// the durable record and the pipeline orchestrator.
package state

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle position of a job.
type State string

const (
	Received      State = "RECEIVED"
	Uploading     State = "UPLOADING"
	Queued        State = "QUEUED"
	OCRInProgress State = "OCR_IN_PROGRESS"
	NLPInProgress State = "NLP_IN_PROGRESS"
	Completed     State = "COMPLETED"
	Failed        State = "FAILED"
)

// ErrUnknownState is returned by Parse for unrecognized values.
var ErrUnknownState = errors.New("unknown job state")

// MaxStageMessage bounds the error summary written into a failed job's stage label.
const MaxStageMessage = 512

var checkpoints = map[State]int{
	Received:      10,
	Uploading:     20,
	Queued:        40,
	OCRInProgress: 60,
	NLPInProgress: 80,
	Completed:     100,
}

var labels = map[State]string{
	Received:      "Upload requested",
	Uploading:     "Uploading to storage",
	Queued:        "Queued for OCR",
	OCRInProgress: "Downloading & OCR",
	NLPInProgress: "Extracting entities & tags",
	Completed:     "Done",
}

// transitions lists the legal successors of each state. Re-entry into
// OCR_IN_PROGRESS from FAILED and from the in-progress states covers
// redelivered queue messages.
var transitions = map[State][]State{
	Received:      {Uploading, Failed},
	Uploading:     {Queued, Failed},
	Queued:        {OCRInProgress, Failed},
	OCRInProgress: {OCRInProgress, NLPInProgress, Failed},
	NLPInProgress: {OCRInProgress, Completed, Failed},
	Failed:        {OCRInProgress},
	Completed:     {},
}

// Parse converts a stored string into a State.
func Parse(s string) (State, error) {
	st := State(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
	return st, nil
}

// Terminal reports whether no pipeline step follows s.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Checkpoint returns the fixed progress value recorded on entry to s.
// FAILED has no checkpoint and reports false.
func (s State) Checkpoint() (int, bool) {
	p, ok := checkpoints[s]
	return p, ok
}

// Label returns the human-readable stage label for s.
func (s State) Label() string {
	return labels[s]
}

// Reprocessable reports whether a worker may (re)start extraction from s.
func (s State) Reprocessable() bool {
	return CanTransition(s, OCRInProgress)
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ClampProgress returns the stored progress after merging next into current.
// Progress never decreases and stays within 0..100.
func ClampProgress(current, next int) int {
	return min(max(current, next, 0), 100)
}

// Snapshot is a point-in-time read of a job.
type Snapshot struct {
	JobID     string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Status    State     `json:"status"`
	Progress  int       `json:"progress"`
	Stage     string    `json:"stage"`
	SourceURI string    `json:"source_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
