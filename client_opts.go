package jobcache

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/meigma/jobcache/registry"
)

// Option configures a Client.
type Option func(*Client) error

// --- Authentication Options ---

// WithCredentials sets basic auth credentials for the registry.
// An empty username is rejected; omit the option for anonymous access.
func WithCredentials(username, password string) Option {
	return func(c *Client) error {
		if username == "" {
			return errors.New("jobcache: username is required")
		}
		c.cfg.Username = username
		c.cfg.Password = password
		return nil
	}
}

// WithDockerConfig enables reading credentials from ~/.docker/config.json.
// Explicit credentials from WithCredentials take precedence.
func WithDockerConfig() Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithDockerConfig())
		return nil
	}
}

// --- Layout Options ---

// WithNamespace sets the namespace prepended to job names by Key and used
// by TestConnection.
func WithNamespace(namespace string) Option {
	return func(c *Client) error {
		c.cfg.Namespace = strings.Trim(namespace, "/")
		return nil
	}
}

// WithIconFile replaces the embedded icon with the PNG at path.
func WithIconFile(path string) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithIconFile(path))
		return nil
	}
}

// --- Transport Options ---

// WithPlainHTTP forces plain HTTP (true) or HTTPS (false).
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithPlainHTTP(enabled))
		return nil
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithUserAgent(ua))
		return nil
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithLogger(logger))
		return nil
	}
}

// WithOCIClient replaces the registry transport, mainly for tests.
func WithOCIClient(oci registry.OCIClient) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithOCIClient(oci))
		return nil
	}
}
