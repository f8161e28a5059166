package extract

import "errors"

// Stage errors. Each wraps the underlying cause.
var (
	ErrFetch     = errors.New("fetch failed")
	ErrRecognize = errors.New("recognition failed")
	ErrEntities  = errors.New("entity extraction failed")
)
