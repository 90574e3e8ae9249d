package registry

import (
	"fmt"
	"strings"

	"github.com/meigma/jobcache/registry/oras"
)

// Config describes how to reach the registry backing the cache.
//
// An empty Username selects anonymous access.
type Config struct {
	// RegistryURL is the registry endpoint, with or without scheme
	// (e.g. "ghcr.io", "https://harbor.example.com", "http://localhost:5000").
	RegistryURL string

	// Namespace scopes the connection test and is prepended to job names by Key.
	Namespace string

	Username string
	Password string
}

// HasCredentials reports whether basic auth credentials are configured.
func (c Config) HasCredentials() bool {
	return c.Username != ""
}

// Host returns the registry host[:port] without scheme or path.
func (c Config) Host() string {
	return oras.NormalizeServerAddress(c.RegistryURL)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Host() == "" {
		return fmt.Errorf("%w: registry URL is required", ErrInvalidConfig)
	}
	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("%w: password set without username", ErrInvalidConfig)
	}
	return nil
}

// String returns a printable form of the configuration with the password redacted.
func (c Config) String() string {
	password := ""
	if c.Password != "" {
		password = "****"
	}
	return fmt.Sprintf("Config{RegistryURL:%s Namespace:%s Username:%s Password:%s}",
		c.RegistryURL, c.Namespace, c.Username, password)
}

// plainHTTPDefault reports the transport default derived from the URL
// scheme: an explicit scheme wins, otherwise anonymous access uses plain HTTP.
// Credentials from the Docker config count as credentialed access.
func (c Config) plainHTTPDefault(dockerConfig bool) bool {
	url := strings.TrimSpace(c.RegistryURL)
	switch {
	case strings.HasPrefix(url, "http://"):
		return true
	case strings.HasPrefix(url, "https://"):
		return false
	default:
		return !c.HasCredentials() && !dockerConfig
	}
}
