package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/smart-ocr/internal/extract"
	"github.com/JaimeStill/smart-ocr/internal/jobs"
	"github.com/JaimeStill/smart-ocr/internal/status"
	"github.com/JaimeStill/smart-ocr/internal/storage"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = fmt.Errorf("%w: invalid state transition", ErrValidation)
)

// Stage names reported in StageError.
const (
	StageFetch     = "fetch"
	StageRecognize = "recognize"
	StageEntities  = "entities"
)

// StageError reports which extraction stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(err error) *StageError {
	stage := StageRecognize
	switch {
	case errors.Is(err, extract.ErrFetch):
		stage = StageFetch
	case errors.Is(err, extract.ErrEntities):
		stage = StageEntities
	}
	return &StageError{Stage: stage, Err: err}
}

// MapHTTPStatus converts pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	if code := storage.MapHTTPStatus(err); code != http.StatusInternalServerError {
		return code
	}
	return http.StatusInternalServerError
}
