package extract

import (
	"path/filepath"
	"strings"
)

// Kind is the recognition strategy chosen for a file.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindUnsupported Kind = "unsupported"
)

var kindsByExt = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
}

// Detect classifies filename by extension, case-insensitively.
func Detect(filename string) Kind {
	if k, ok := kindsByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return k
	}
	return KindUnsupported
}

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MimeType returns the content type implied by filename's extension, or
// fallback when the extension is not recognized.
func MimeType(filename, fallback string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return m
	}
	if fallback == "" {
		return "application/octet-stream"
	}
	return fallback
}
