package config

import (
	"fmt"

	"github.com/JaimeStill/smart-ocr/internal/queue"
)

// QueueEnv maps environment variable names for the task queue.
type QueueEnv struct {
	Name           string
	Workers        string
	MaxAttempts    string
	BlockTimeout   string
	ProcessTimeout string
	RetryBackoff   string
	HeartbeatTTL   string
	ConsumerID     string
}

// QueueConfig configures the Redis task queue and the worker pool.
type QueueConfig struct {
	Name           string `toml:"name"`
	Workers        int    `toml:"workers"`
	MaxAttempts    int    `toml:"max_attempts"`
	BlockTimeout   string `toml:"block_timeout"`
	ProcessTimeout string `toml:"process_timeout"`
	RetryBackoff   string `toml:"retry_backoff"`
	HeartbeatTTL   string `toml:"heartbeat_ttl"`
	ConsumerID     string `toml:"consumer_id"`
}

// Queue converts the section into queue options.
func (c *QueueConfig) Queue() queue.Config {
	return queue.Config{
		Name:           c.Name,
		Workers:        c.Workers,
		MaxAttempts:    c.MaxAttempts,
		BlockTimeout:   duration(c.BlockTimeout),
		ProcessTimeout: duration(c.ProcessTimeout),
		RetryBackoff:   duration(c.RetryBackoff),
		HeartbeatTTL:   duration(c.HeartbeatTTL),
		ConsumerID:     c.ConsumerID,
	}
}

// Finalize applies defaults, loads environment overrides, and validates the queue configuration.
func (c *QueueConfig) Finalize(env *QueueEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *QueueConfig) Merge(overlay *QueueConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BlockTimeout != "" {
		c.BlockTimeout = overlay.BlockTimeout
	}
	if overlay.ProcessTimeout != "" {
		c.ProcessTimeout = overlay.ProcessTimeout
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
	if overlay.HeartbeatTTL != "" {
		c.HeartbeatTTL = overlay.HeartbeatTTL
	}
	if overlay.ConsumerID != "" {
		c.ConsumerID = overlay.ConsumerID
	}
}

func (c *QueueConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "ocr"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BlockTimeout == "" {
		c.BlockTimeout = "5s"
	}
	if c.ProcessTimeout == "" {
		c.ProcessTimeout = "15m"
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "2s"
	}
	if c.HeartbeatTTL == "" {
		c.HeartbeatTTL = "30s"
	}
}

func (c *QueueConfig) loadEnv(env *QueueEnv) {
	c.Name = envString(env.Name, c.Name)
	c.Workers = envInt(env.Workers, c.Workers)
	c.MaxAttempts = envInt(env.MaxAttempts, c.MaxAttempts)
	c.BlockTimeout = envString(env.BlockTimeout, c.BlockTimeout)
	c.ProcessTimeout = envString(env.ProcessTimeout, c.ProcessTimeout)
	c.RetryBackoff = envString(env.RetryBackoff, c.RetryBackoff)
	c.HeartbeatTTL = envString(env.HeartbeatTTL, c.HeartbeatTTL)
	c.ConsumerID = envString(env.ConsumerID, c.ConsumerID)
}

func (c *QueueConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive")
	}
	return validDurations(map[string]string{
		"block_timeout":   c.BlockTimeout,
		"process_timeout": c.ProcessTimeout,
		"retry_backoff":   c.RetryBackoff,
		"heartbeat_ttl":   c.HeartbeatTTL,
	})
}
