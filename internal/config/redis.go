package config

import (
	"fmt"

	"github.com/JaimeStill/smart-ocr/internal/status"
	"github.com/JaimeStill/smart-ocr/pkg/memorydb"
)

// RedisEnv maps environment variable names for the Redis section.
type RedisEnv struct {
	Client    memorydb.Env
	KeyPrefix string
	StatusTTL string
}

// RedisConfig holds the client settings plus the status cache layout.
// Client fields sit at the top level of the [redis] table.
type RedisConfig struct {
	memorydb.Config

	KeyPrefix string `toml:"key_prefix"`
	StatusTTL string `toml:"status_ttl"`
}

// Status returns the status cache configuration.
func (c *RedisConfig) Status() status.Config {
	return status.Config{
		KeyPrefix: c.KeyPrefix,
		TTL:       duration(c.StatusTTL),
	}
}

// Finalize applies defaults, loads environment overrides, and validates the Redis configuration.
func (c *RedisConfig) Finalize(env *RedisEnv) error {
	var clientEnv *memorydb.Env
	if env != nil {
		clientEnv = &env.Client
	}
	if err := c.Config.Finalize(clientEnv); err != nil {
		return err
	}

	if c.KeyPrefix == "" {
		c.KeyPrefix = "job:"
	}
	if c.StatusTTL == "" {
		c.StatusTTL = "168h"
	}
	if env != nil {
		c.KeyPrefix = envString(env.KeyPrefix, c.KeyPrefix)
		c.StatusTTL = envString(env.StatusTTL, c.StatusTTL)
	}

	if err := validDurations(map[string]string{"status_ttl": c.StatusTTL}); err != nil {
		return err
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix required")
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *RedisConfig) Merge(overlay *RedisConfig) {
	c.Config.Merge(&overlay.Config)
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.StatusTTL != "" {
		c.StatusTTL = overlay.StatusTTL
	}
}
