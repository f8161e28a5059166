package memorydb_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/smart-ocr/pkg/memorydb"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := &memorydb.Config{}

	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if len(cfg.Addrs) != 1 || cfg.Addrs[0] != "localhost:6379" {
		t.Errorf("Addrs = %v, want [localhost:6379]", cfg.Addrs)
	}
	if cfg.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want 10", cfg.PoolSize)
	}
	if cfg.ReadTimeoutDuration() != 5*time.Second {
		t.Errorf("ReadTimeoutDuration() = %v, want 5s", cfg.ReadTimeoutDuration())
	}
}

func TestConfig_Finalize_EnvAddrs(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDRS", "redis-a:6379, redis-b:6379,")

	cfg := &memorydb.Config{}
	if err := cfg.Finalize(&memorydb.Env{Addrs: "TEST_REDIS_ADDRS"}); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if len(cfg.Addrs) != 2 || cfg.Addrs[0] != "redis-a:6379" || cfg.Addrs[1] != "redis-b:6379" {
		t.Errorf("Addrs = %v, want [redis-a:6379 redis-b:6379]", cfg.Addrs)
	}
}

func TestConfig_Finalize_InvalidTimeout(t *testing.T) {
	cfg := &memorydb.Config{ReadTimeout: "soon"}

	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() error = nil, want invalid read_timeout")
	}
}

func TestConfig_Merge(t *testing.T) {
	base := &memorydb.Config{Addrs: []string{"localhost:6379"}, PoolSize: 10}
	base.Merge(&memorydb.Config{Addrs: []string{"redis:6379"}, DB: 2})

	if base.Addrs[0] != "redis:6379" {
		t.Errorf("Addrs = %v, want [redis:6379]", base.Addrs)
	}
	if base.DB != 2 {
		t.Errorf("DB = %d, want 2", base.DB)
	}
	if base.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want 10", base.PoolSize)
	}
}
