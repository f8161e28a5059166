package jobs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/smart-ocr/pkg/pagination"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrDuplicate = errors.New("job already exists")
	ErrFilter    = errors.New("invalid job filter")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFilter) || errors.Is(err, pagination.ErrInvalidPage) || errors.Is(err, pagination.ErrInvalidSort) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
