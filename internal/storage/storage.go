package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
	"github.com/JaimeStill/smart-ocr/pkg/storage"
)

// System stores uploaded files and hands them back to the pipeline.
type System interface {
	// Put writes the contents of r at key and returns the object URI.
	// Existing objects at key are overwritten.
	Put(ctx context.Context, r io.Reader, key, contentType string) (string, error)

	// Fetch downloads the object at uri into localPath, creating parent
	// directories as needed. Malformed URIs return ErrInvalidURI.
	Fetch(ctx context.Context, uri, localPath string) error

	// SignedURL issues a time-limited download URL for the object.
	SignedURL(ctx context.Context, uri string, ttl time.Duration) (string, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, uri string) error

	Start(lc *lifecycle.Coordinator) error
}

// New selects the backend named by cfg.Backend.
func New(ctx context.Context, cfg *storage.Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case storage.BackendFilesystem:
		return NewFilesystem(cfg, logger)
	case storage.BackendS3:
		return NewS3(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
