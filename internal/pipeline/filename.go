package pipeline

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces name to a safe single path component made of
// ASCII letters, digits, '.', '_' and '-'. Whitespace runs become a single
// '_'. The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return ' '
		}
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)

	name = strings.Join(strings.Fields(name), "_")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, name)
	return strings.Trim(name, "._")
}

// BlobKey returns the storage key for a job's source file.
func BlobKey(jobID, filename string) string {
	return path.Join("uploads", jobID, filename)
}
