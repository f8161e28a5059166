package status

import (
	"testing"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/state"
)

func TestFlattenUnflatten(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := state.Snapshot{
		JobID:     "a1b2",
		Filename:  "invoice.pdf",
		Status:    state.Queued,
		Progress:  40,
		Stage:     "Queued for OCR",
		SourceURI: "s3://smart-ocr/uploads/a1b2/invoice.pdf",
		CreatedAt: created,
		UpdatedAt: created.Add(1500 * time.Millisecond),
	}

	fields := map[string]string{}
	for k, v := range flatten(snap) {
		fields[k] = v.(string)
	}

	got, err := unflatten(fields)
	if err != nil {
		t.Fatalf("unflatten() failed: %v", err)
	}
	want := snap
	want.UpdatedAt = created.Add(time.Second)
	if got != want {
		t.Errorf("unflatten() = %+v, want %+v", got, want)
	}
}

func TestUnflatten_Invalid(t *testing.T) {
	base := map[string]string{
		fieldStatus:    "QUEUED",
		fieldProgress:  "40",
		fieldCreatedAt: formatTime(time.Now()),
		fieldUpdatedAt: formatTime(time.Now()),
	}

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"status", fieldStatus, "SLEEPING"},
		{"progress", fieldProgress, "forty"},
		{"created_at", fieldCreatedAt, "yesterday"},
		{"updated_at", fieldUpdatedAt, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{}
			for k, v := range base {
				fields[k] = v
			}
			fields[tt.field] = tt.value

			if _, err := unflatten(fields); err == nil {
				t.Error("unflatten() error = nil, want error")
			}
		})
	}
}

func TestUpdateArgs(t *testing.T) {
	if args := updateArgs(state.Update{}); len(args) != 0 {
		t.Errorf("updateArgs(empty) = %v, want none", args)
	}

	args := updateArgs(state.Enter(state.OCRInProgress))
	want := []any{fieldStatus, "OCR_IN_PROGRESS", fieldProgress, "60", fieldStage, "Downloading & OCR"}
	if len(args) != len(want) {
		t.Fatalf("updateArgs() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}
