package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/config"
)

func useRepoConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfigDir, filepath.Join("..", ".."))
	t.Setenv(config.EnvServiceEnv, "")
}

func TestLoad_BaseConfig(t *testing.T) {
	useRepoConfig(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("Queue.Workers = %d, want 4", cfg.Queue.Workers)
	}
	if got := cfg.Storage.MaxUploadSizeBytes(); got != 100_000_000 {
		t.Errorf("MaxUploadSizeBytes() = %d, want 100000000", got)
	}
	if cfg.Redis.Addrs[0] != "localhost:6379" {
		t.Errorf("Redis.Addrs = %v, want [localhost:6379]", cfg.Redis.Addrs)
	}
	if got := cfg.Redis.Status().TTL; got != 168*time.Hour {
		t.Errorf("Status().TTL = %v, want 168h", got)
	}
}

func TestLoad_WithOverlay(t *testing.T) {
	dir := t.TempDir()

	base, err := os.ReadFile(filepath.Join("..", "..", config.BaseConfigFile))
	if err != nil {
		t.Fatalf("read base config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.BaseConfigFile), base, 0o644); err != nil {
		t.Fatal(err)
	}

	overlay := `shutdown_timeout = "60s"

[server]
port = 9090

[redis]
addrs = ["redis-a:6379", "redis-b:6379"]

[queue]
workers = 8
`
	if err := os.WriteFile(filepath.Join(dir, "config.test.toml"), []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.EnvConfigDir, dir)
	t.Setenv(config.EnvServiceEnv, "test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ShutdownTimeout != "60s" {
		t.Errorf("ShutdownTimeout = %q, want 60s", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Redis.Addrs) != 2 {
		t.Errorf("Redis.Addrs = %v, want 2 addresses", cfg.Redis.Addrs)
	}
	if cfg.Queue.Workers != 8 {
		t.Errorf("Queue.Workers = %d, want 8", cfg.Queue.Workers)
	}
	if cfg.Queue.MaxAttempts != 3 {
		t.Errorf("Queue.MaxAttempts = %d, want 3 from base", cfg.Queue.MaxAttempts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(config.EnvConfigDir, t.TempDir())

	if _, err := config.Load(); err == nil {
		t.Error("Load() error = nil, want error for missing config.toml")
	}
}

func TestFinalize_EnvOverrides(t *testing.T) {
	useRepoConfig(t)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("QUEUE_PROCESS_TIMEOUT", "90s")
	t.Setenv("PIPELINE_TESSERACT_LANGUAGE", "deu")
	t.Setenv("REDIS_ADDRS", "cache:6379")
	t.Setenv("STORAGE_MAX_UPLOAD_SIZE", "5MB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if got := cfg.Queue.Queue().ProcessTimeout; got != 90*time.Second {
		t.Errorf("ProcessTimeout = %v, want 90s", got)
	}
	if cfg.Pipeline.TesseractLanguage != "deu" {
		t.Errorf("TesseractLanguage = %q, want deu", cfg.Pipeline.TesseractLanguage)
	}
	if cfg.Redis.Addrs[0] != "cache:6379" {
		t.Errorf("Redis.Addrs = %v, want [cache:6379]", cfg.Redis.Addrs)
	}
	if got := cfg.Storage.MaxUploadSizeBytes(); got != 5_000_000 {
		t.Errorf("MaxUploadSizeBytes() = %d, want 5000000", got)
	}
}

func TestFinalize_Defaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Name = "db"
	cfg.Database.User = "user"
	cfg.Storage.SigningKey = "key"

	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 30s", cfg.ShutdownTimeoutDuration())
	}

	ex := cfg.Pipeline.Extract()
	if ex.RecognizeTimeout != 10*time.Minute {
		t.Errorf("RecognizeTimeout = %v, want 10m", ex.RecognizeTimeout)
	}
	if cfg.Redis.KeyPrefix != "job:" {
		t.Errorf("KeyPrefix = %q, want job:", cfg.Redis.KeyPrefix)
	}
	if cfg.Queue.Name != "ocr" {
		t.Errorf("Queue.Name = %q, want ocr", cfg.Queue.Name)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
}

func TestFinalize_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = "soon" }},
		{"server port", func(c *config.Config) { c.Server.Port = 70000 }},
		{"queue timeout", func(c *config.Config) { c.Queue.ProcessTimeout = "-1s" }},
		{"raster dpi", func(c *config.Config) { c.Pipeline.RasterDPI = 10 }},
		{"status ttl", func(c *config.Config) { c.Redis.StatusTTL = "forever" }},
		{"database name", func(c *config.Config) { c.Database.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Database.Name = "db"
			cfg.Database.User = "user"
			cfg.Storage.SigningKey = "key"
			tt.mutate(cfg)

			if err := cfg.Finalize(); err == nil {
				t.Error("Finalize() error = nil, want error")
			}
		})
	}
}
