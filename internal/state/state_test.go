package state_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/smart-ocr/internal/state"
)

func TestCheckpoints(t *testing.T) {
	tests := []struct {
		state state.State
		want  int
	}{
		{state.Received, 10},
		{state.Uploading, 20},
		{state.Queued, 40},
		{state.OCRInProgress, 60},
		{state.NLPInProgress, 80},
		{state.Completed, 100},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got, ok := tt.state.Checkpoint()
			if !ok || got != tt.want {
				t.Errorf("Checkpoint() = %d, %v, want %d, true", got, ok, tt.want)
			}
		})
	}

	if _, ok := state.Failed.Checkpoint(); ok {
		t.Error("Failed.Checkpoint() ok = true, want false")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to state.State
		want     bool
	}{
		{state.Received, state.Uploading, true},
		{state.Uploading, state.Queued, true},
		{state.Queued, state.OCRInProgress, true},
		{state.OCRInProgress, state.NLPInProgress, true},
		{state.NLPInProgress, state.Completed, true},
		{state.Received, state.Failed, true},
		{state.NLPInProgress, state.Failed, true},
		{state.Failed, state.OCRInProgress, true},
		{state.Received, state.Queued, false},
		{state.Queued, state.Completed, false},
		{state.Completed, state.Failed, false},
		{state.Completed, state.OCRInProgress, false},
		{state.Failed, state.Completed, false},
	}

	for _, tt := range tests {
		if got := state.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestReprocessable(t *testing.T) {
	for _, s := range []state.State{state.Queued, state.Failed, state.OCRInProgress, state.NLPInProgress} {
		if !s.Reprocessable() {
			t.Errorf("%s.Reprocessable() = false, want true", s)
		}
	}
	for _, s := range []state.State{state.Received, state.Uploading, state.Completed} {
		if s.Reprocessable() {
			t.Errorf("%s.Reprocessable() = true, want false", s)
		}
	}
}

func TestParse(t *testing.T) {
	got, err := state.Parse("NLP_IN_PROGRESS")
	if err != nil || got != state.NLPInProgress {
		t.Errorf("Parse() = %q, %v, want NLP_IN_PROGRESS", got, err)
	}

	if _, err := state.Parse("PAUSED"); !errors.Is(err, state.ErrUnknownState) {
		t.Errorf("Parse(PAUSED) error = %v, want ErrUnknownState", err)
	}
}

func TestClampProgress(t *testing.T) {
	tests := []struct {
		current, next, want int
	}{
		{40, 5, 40},
		{40, 60, 60},
		{0, 10, 10},
		{100, 20, 100},
		{10, 150, 100},
		{0, -3, 0},
	}

	for _, tt := range tests {
		if got := state.ClampProgress(tt.current, tt.next); got != tt.want {
			t.Errorf("ClampProgress(%d, %d) = %d, want %d", tt.current, tt.next, got, tt.want)
		}
	}
}

func TestUpdate_Apply(t *testing.T) {
	snap := state.Snapshot{Status: state.Queued, Progress: 40, Stage: "Queued for OCR"}

	low := 5
	snap = state.Update{Progress: &low}.Apply(snap)
	if snap.Progress != 40 {
		t.Errorf("Progress = %d, want 40", snap.Progress)
	}

	snap = state.Enter(state.OCRInProgress).Apply(snap)
	if snap.Status != state.OCRInProgress || snap.Progress != 60 || snap.Stage != "Downloading & OCR" {
		t.Errorf("Enter(OCR) applied = %+v", snap)
	}

	snap = state.Fail(errors.New("tesseract exited 1")).Apply(snap)
	if snap.Status != state.Failed {
		t.Errorf("Status = %s, want FAILED", snap.Status)
	}
	if snap.Progress != 60 {
		t.Errorf("Progress = %d, want 60 (preserved on failure)", snap.Progress)
	}
	if snap.Stage != "Error: tesseract exited 1" {
		t.Errorf("Stage = %q", snap.Stage)
	}
}

func TestFail_BoundsMessage(t *testing.T) {
	u := state.Fail(errors.New(strings.Repeat("é", 2000)))

	msg := strings.TrimPrefix(*u.Stage, "Error: ")
	if n := len([]rune(msg)); n != state.MaxStageMessage {
		t.Errorf("message runes = %d, want %d", n, state.MaxStageMessage)
	}
	if u.Progress != nil {
		t.Error("Fail() set Progress, want nil")
	}
}

func TestUpdate_IsZero(t *testing.T) {
	if !(state.Update{}).IsZero() {
		t.Error("IsZero() = false for empty update")
	}
	if (state.Update{}).WithSourceURI("s3://b/k").IsZero() {
		t.Error("IsZero() = true with source uri")
	}
}
