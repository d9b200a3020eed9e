package cfg

import (
	"fmt"
	"net/url"
)

func isValidLogRotateConfig(c *LoggingConfig) error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max-file-size-mb should be at least 1")
	}
	if c.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing server-url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server-url must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server-url must include a host")
	}
	return nil
}

func isValidClientConfig(c *ClientConfig) error {
	if c.CacheStrategy != CacheStrategyTTL && c.CacheStrategy != CacheStrategyLRU {
		return fmt.Errorf("cache-strategy must be ttl or lru, got %q", c.CacheStrategy)
	}
	if c.CacheStrategy == CacheStrategyLRU && c.CacheLRUCapacity == 0 {
		return fmt.Errorf("cache-lru-capacity must be at least 1 under the lru strategy")
	}
	if c.RequestTimeoutSecs == 0 {
		return fmt.Errorf("request-timeout-secs must be at least 1")
	}
	return isValidServerURL(c.ServerURL)
}

// ValidateConfig returns a non-nil error if config is invalid.
func ValidateConfig(config *Config) error {
	if err := isValidLogRotateConfig(&config.Logging); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}
	if err := isValidClientConfig(&config.Client); err != nil {
		return fmt.Errorf("error parsing client config: %w", err)
	}
	return nil
}

// ValidateServerConfig returns a non-nil error if config is invalid.
func ValidateServerConfig(config *ServerConfig) error {
	if err := isValidLogRotateConfig(&config.Logging); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}
	if config.Root == "" {
		return fmt.Errorf("root is required")
	}
	if config.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	return nil
}
