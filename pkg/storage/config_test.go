package storage_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/smart-ocr/pkg/storage"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := &storage.Config{SigningKey: "secret"}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Backend != storage.BackendFilesystem {
		t.Errorf("Backend = %q, want %q", cfg.Backend, storage.BackendFilesystem)
	}
	if cfg.MaxUploadSizeBytes() != 100*1000*1000 {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", cfg.MaxUploadSizeBytes(), 100*1000*1000)
	}
	if cfg.SignedURLTTLDuration() != 15*time.Minute {
		t.Errorf("SignedURLTTLDuration() = %v, want 15m", cfg.SignedURLTTLDuration())
	}
}

func TestConfig_Finalize_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"unknown backend", storage.Config{Backend: "gcs"}},
		{"filesystem without key", storage.Config{Backend: storage.BackendFilesystem}},
		{"bad size", storage.Config{SigningKey: "k", MaxUploadSize: "lots"}},
		{"bad ttl", storage.Config{SigningKey: "k", SignedURLTTL: "-5m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() error = nil, want validation error")
			}
		})
	}
}

func TestConfig_Finalize_S3FromEnv(t *testing.T) {
	env := &storage.Env{
		Backend:        "TEST_STORAGE_BACKEND",
		S3Endpoint:     "TEST_STORAGE_S3_ENDPOINT",
		S3UsePathStyle: "TEST_STORAGE_S3_PATH_STYLE",
	}
	t.Setenv("TEST_STORAGE_BACKEND", "s3")
	t.Setenv("TEST_STORAGE_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("TEST_STORAGE_S3_PATH_STYLE", "true")

	cfg := &storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Backend != storage.BackendS3 {
		t.Errorf("Backend = %q, want %q", cfg.Backend, storage.BackendS3)
	}
	if cfg.S3.Endpoint != "http://minio:9000" {
		t.Errorf("S3.Endpoint = %q, want %q", cfg.S3.Endpoint, "http://minio:9000")
	}
	if !cfg.S3.UsePathStyle {
		t.Error("S3.UsePathStyle = false, want true")
	}
}

func TestConfig_Merge_UploadSize(t *testing.T) {
	cfg := &storage.Config{SigningKey: "k"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	cfg.Merge(&storage.Config{MaxUploadSize: "10MB"})

	if cfg.MaxUploadSizeBytes() != 10*1000*1000 {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", cfg.MaxUploadSizeBytes(), 10*1000*1000)
	}
}
