package storage

import (
	"fmt"
	"strings"
)

// URI addresses an object as scheme://bucket/key.
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseURI splits raw into its parts. All three must be non-empty.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("%w: %q missing scheme", ErrInvalidURI, raw)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return URI{}, fmt.Errorf("%w: %q must be %s://bucket/key", ErrInvalidURI, raw, scheme)
	}

	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

func (u URI) String() string {
	return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Bucket, u.Key)
}
