package registry

import "log/slog"

// Option configures a Client.
type Option func(*Client)

// WithOCIClient sets a custom OCI client implementation.
//
// Transport options (WithPlainHTTP, WithDockerConfig, WithUserAgent) are
// ignored when a custom client is provided.
func WithOCIClient(oci OCIClient) Option {
	return func(c *Client) {
		c.oci = oci
	}
}

// WithLogger sets the logger for the client and the default ORAS client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPlainHTTP forces plain HTTP (true) or HTTPS (false), overriding the
// default derived from the configuration.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = &enabled
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json when the
// configuration carries no username.
func WithDockerConfig() Option {
	return func(c *Client) {
		c.dockerConfig = true
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithIconFile replaces the embedded icon with the PNG at path.
// The file is read on every upload; a missing file fails the upload.
func WithIconFile(path string) Option {
	return func(c *Client) {
		c.iconPath = path
	}
}
