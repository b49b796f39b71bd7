package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the invariants the daemon relies on.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("ListenAddress: %w", err)
	}
	switch c.DBBackend {
	case BackendLevelDB:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DataDir required for the leveldb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("DBBackend: unsupported %q", c.DBBackend)
	}
	if c.HTTPReadTimeout < 0 || c.HTTPWriteTimeout < 0 || c.HTTPIdleTimeout < 0 {
		return fmt.Errorf("http timeouts must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RateLimit: values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("RateLimit: Burst must be positive when RequestsPerSecond is set")
	}
	if c.Auth.Required && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("Auth: JWTSecret required when Required is set")
	}
	if c.Indexer.Enabled && strings.TrimSpace(c.Indexer.DSN) == "" {
		return fmt.Errorf("Indexer: DSN required when Enabled is set")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("Logging: rotation limits must not be negative")
	}
	for i, module := range c.PausedModules {
		if strings.TrimSpace(module) == "" {
			return fmt.Errorf("PausedModules[%d]: empty module name", i)
		}
	}
	return nil
}
