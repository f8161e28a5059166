package memorydb

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains Redis connection configuration.
type Config struct {
	Addrs        []string `toml:"addrs"`
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	DB           int      `toml:"db"`
	PoolSize     int      `toml:"pool_size"`
	DialTimeout  string   `toml:"dial_timeout"`
	ReadTimeout  string   `toml:"read_timeout"`
	WriteTimeout string   `toml:"write_timeout"`
}

// Env maps environment variable names for Redis configuration.
type Env struct {
	Addrs    string
	Username string
	Password string
	DB       string
	PoolSize string
}

func (c *Config) DialTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DialTimeout)
	return d
}

func (c *Config) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	return d
}

func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if len(overlay.Addrs) > 0 {
		c.Addrs = overlay.Addrs
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.DB != 0 {
		c.DB = overlay.DB
	}
	if overlay.PoolSize != 0 {
		c.PoolSize = overlay.PoolSize
	}
	if overlay.DialTimeout != "" {
		c.DialTimeout = overlay.DialTimeout
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
}

func (c *Config) loadDefaults() {
	if len(c.Addrs) == 0 {
		c.Addrs = []string{"localhost:6379"}
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "5s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.Addrs); env.Addrs != "" && v != "" {
		addrs := make([]string, 0)
		for a := range strings.SplitSeq(v, ",") {
			if trimmed := strings.TrimSpace(a); trimmed != "" {
				addrs = append(addrs, trimmed)
			}
		}
		c.Addrs = addrs
	}
	if v := os.Getenv(env.Username); env.Username != "" && v != "" {
		c.Username = v
	}
	if v := os.Getenv(env.Password); env.Password != "" && v != "" {
		c.Password = v
	}
	if v := os.Getenv(env.DB); env.DB != "" && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DB = n
		}
	}
	if v := os.Getenv(env.PoolSize); env.PoolSize != "" && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PoolSize = n
		}
	}
}

func (c *Config) validate() error {
	if len(c.Addrs) == 0 {
		return fmt.Errorf("at least one address required")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be positive")
	}
	for name, v := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
