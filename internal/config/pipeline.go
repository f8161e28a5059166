package config

import (
	"fmt"

	"github.com/JaimeStill/smart-ocr/internal/extract"
)

// PipelineEnv maps environment variable names for the extraction stages.
type PipelineEnv struct {
	FetchTimeout      string
	RecognizeTimeout  string
	EntitiesTimeout   string
	ScratchDir        string
	TesseractBinary   string
	TesseractLanguage string
	RasterDPI         string
	MaxPages          string
}

// PipelineConfig configures the extraction stages run by the worker.
type PipelineConfig struct {
	FetchTimeout      string `toml:"fetch_timeout"`
	RecognizeTimeout  string `toml:"recognize_timeout"`
	EntitiesTimeout   string `toml:"entities_timeout"`
	ScratchDir        string `toml:"scratch_dir"`
	TesseractBinary   string `toml:"tesseract_binary"`
	TesseractLanguage string `toml:"tesseract_language"`
	RasterDPI         int    `toml:"raster_dpi"`

	// MaxPages rejects PDF uploads with more pages at the gateway. Zero disables the check.
	MaxPages int `toml:"max_pages"`
}

// Extract converts the section into extractor options.
func (c *PipelineConfig) Extract() extract.Config {
	return extract.Config{
		FetchTimeout:     duration(c.FetchTimeout),
		RecognizeTimeout: duration(c.RecognizeTimeout),
		EntitiesTimeout:  duration(c.EntitiesTimeout),
		ScratchDir:       c.ScratchDir,
	}
}

// Finalize applies defaults, loads environment overrides, and validates the pipeline configuration.
func (c *PipelineConfig) Finalize(env *PipelineEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}
	if overlay.RecognizeTimeout != "" {
		c.RecognizeTimeout = overlay.RecognizeTimeout
	}
	if overlay.EntitiesTimeout != "" {
		c.EntitiesTimeout = overlay.EntitiesTimeout
	}
	if overlay.ScratchDir != "" {
		c.ScratchDir = overlay.ScratchDir
	}
	if overlay.TesseractBinary != "" {
		c.TesseractBinary = overlay.TesseractBinary
	}
	if overlay.TesseractLanguage != "" {
		c.TesseractLanguage = overlay.TesseractLanguage
	}
	if overlay.RasterDPI != 0 {
		c.RasterDPI = overlay.RasterDPI
	}
	if overlay.MaxPages != 0 {
		c.MaxPages = overlay.MaxPages
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.FetchTimeout == "" {
		c.FetchTimeout = "2m"
	}
	if c.RecognizeTimeout == "" {
		c.RecognizeTimeout = "10m"
	}
	if c.EntitiesTimeout == "" {
		c.EntitiesTimeout = "2m"
	}
	if c.TesseractBinary == "" {
		c.TesseractBinary = "tesseract"
	}
	if c.TesseractLanguage == "" {
		c.TesseractLanguage = "eng"
	}
	if c.RasterDPI == 0 {
		c.RasterDPI = 200
	}
}

func (c *PipelineConfig) loadEnv(env *PipelineEnv) {
	c.FetchTimeout = envString(env.FetchTimeout, c.FetchTimeout)
	c.RecognizeTimeout = envString(env.RecognizeTimeout, c.RecognizeTimeout)
	c.EntitiesTimeout = envString(env.EntitiesTimeout, c.EntitiesTimeout)
	c.ScratchDir = envString(env.ScratchDir, c.ScratchDir)
	c.TesseractBinary = envString(env.TesseractBinary, c.TesseractBinary)
	c.TesseractLanguage = envString(env.TesseractLanguage, c.TesseractLanguage)
	c.RasterDPI = envInt(env.RasterDPI, c.RasterDPI)
	c.MaxPages = envInt(env.MaxPages, c.MaxPages)
}

func (c *PipelineConfig) validate() error {
	if c.RasterDPI < 72 || c.RasterDPI > 600 {
		return fmt.Errorf("raster_dpi must be between 72 and 600, got %d", c.RasterDPI)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative")
	}
	return validDurations(map[string]string{
		"fetch_timeout":     c.FetchTimeout,
		"recognize_timeout": c.RecognizeTimeout,
		"entities_timeout":  c.EntitiesTimeout,
	})
}
