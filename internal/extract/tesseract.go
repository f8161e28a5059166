package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Recognizer turns one image into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract recognizes images with the tesseract CLI, writing to stdout.
type Tesseract struct {
	runner   Runner
	binary   string
	language string
	logger   *slog.Logger
}

// NewTesseract builds a recognizer. Empty binary and language default to
// "tesseract" and "eng".
func NewTesseract(runner Runner, binary, language string, logger *slog.Logger) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{
		runner:   runner,
		binary:   binary,
		language: language,
		logger:   logger.With("system", "tesseract"),
	}
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	stdout, stderr, err := t.runner.Run(ctx, t.binary, t.logger, imagePath, "stdout", "-l", t.language)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("tesseract %s: %w", imagePath, ctxErr)
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return "", fmt.Errorf("tesseract %s: %w", imagePath, err)
		}
		return "", fmt.Errorf("tesseract %s: %w: %s", imagePath, err, truncate(msg, 512))
	}
	return strings.TrimSpace(string(stdout)), nil
}
