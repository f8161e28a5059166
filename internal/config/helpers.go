package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func envString(name, current string) string {
	if name == "" {
		return current
	}
	if v := os.Getenv(name); v != "" {
		return v
	}
	return current
}

func envInt(name string, current int) int {
	if name == "" {
		return current
	}
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return current
}

// validDurations requires every value to parse and be positive.
func validDurations(fields map[string]string) error {
	for name, v := range fields {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func duration(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}
