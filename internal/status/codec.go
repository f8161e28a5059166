package status

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/state"
)

const (
	fieldJobID     = "job_id"
	fieldFilename  = "filename"
	fieldStatus    = "status"
	fieldProgress  = "progress"
	fieldStage     = "stage"
	fieldSourceURI = "source_uri"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

func key(prefix, jobID string) string {
	return prefix + jobID
}

func flatten(s state.Snapshot) map[string]any {
	return map[string]any{
		fieldJobID:     s.JobID,
		fieldFilename:  s.Filename,
		fieldStatus:    string(s.Status),
		fieldProgress:  strconv.Itoa(s.Progress),
		fieldStage:     s.Stage,
		fieldSourceURI: s.SourceURI,
		fieldCreatedAt: formatTime(s.CreatedAt),
		fieldUpdatedAt: formatTime(s.UpdatedAt),
	}
}

// updateArgs encodes u as alternating field/value script arguments.
func updateArgs(u state.Update) []any {
	var args []any
	if u.Status != "" {
		args = append(args, fieldStatus, string(u.Status))
	}
	if u.Progress != nil {
		args = append(args, fieldProgress, strconv.Itoa(*u.Progress))
	}
	if u.Stage != nil {
		args = append(args, fieldStage, *u.Stage)
	}
	if u.SourceURI != nil {
		args = append(args, fieldSourceURI, *u.SourceURI)
	}
	return args
}

func unflatten(fields map[string]string) (state.Snapshot, error) {
	st, err := state.Parse(fields[fieldStatus])
	if err != nil {
		return state.Snapshot{}, err
	}

	progress, err := strconv.Atoi(fields[fieldProgress])
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("progress: %w", err)
	}

	created, err := parseTime(fields[fieldCreatedAt])
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("created_at: %w", err)
	}
	updated, err := parseTime(fields[fieldUpdatedAt])
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("updated_at: %w", err)
	}

	return state.Snapshot{
		JobID:     fields[fieldJobID],
		Filename:  fields[fieldFilename],
		Status:    st,
		Progress:  progress,
		Stage:     fields[fieldStage],
		SourceURI: fields[fieldSourceURI],
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func parseTime(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
