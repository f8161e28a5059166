// Package storage implements the blob store used for uploaded source files.
// Objects are addressed by URIs of the form scheme://bucket/key; the
// filesystem backend uses the "file" scheme and the S3 backend "s3".
package storage

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound         = errors.New("storage: key not found")
	ErrPermissionDenied = errors.New("storage: permission denied")
	ErrInvalidKey       = errors.New("storage: invalid key")
	ErrInvalidURI       = errors.New("storage: invalid uri")
	ErrInvalidSignature = errors.New("storage: invalid signature")
	ErrExpired          = errors.New("storage: signed url expired")
)

// MapHTTPStatus converts storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidURI):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
