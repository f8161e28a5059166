package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Rasterizer renders every page of a PDF to an image file in outDir and
// returns the paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

// PageCount reads the number of pages in a PDF.
func PageCount(r io.ReadSeeker) (int, error) {
	return api.PageCount(r, model.NewDefaultConfiguration())
}

// PDFRasterizer renders pages to PNG through ImageMagick.
type PDFRasterizer struct {
	dpi int
}

// NewPDFRasterizer returns a rasterizer rendering at dpi (200 when zero).
func NewPDFRasterizer(dpi int) *PDFRasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	return &PDFRasterizer{dpi: dpi}
}

func (p *PDFRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	count, err := PageCount(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}

	doc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format:  "png",
		DPI:     p.dpi,
		Options: make(map[string]any),
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	paths := make([]string, 0, count)
	for pageNum := 1; pageNum <= count; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := doc.ExtractPage(pageNum)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", pageNum, err)
		}

		img, err := page.ToImage(renderer, nil)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", pageNum, err)
		}

		path := filepath.Join(outDir, fmt.Sprintf("page-%04d.png", pageNum))
		if err := os.WriteFile(path, img, 0o600); err != nil {
			return nil, fmt.Errorf("write page %d: %w", pageNum, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
