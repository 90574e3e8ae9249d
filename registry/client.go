package registry

import (
	"log/slog"

	"github.com/meigma/jobcache/registry/oras"
)

// Client stores and retrieves cache entries in an OCI registry.
//
// A Client holds immutable configuration and one shared OCIClient, and is
// safe for concurrent use. Concurrent writes to the same entry are not
// coordinated: the registry keeps whichever manifest is pushed last.
type Client struct {
	cfg    Config
	oci    OCIClient
	logger *slog.Logger

	// iconPath overrides the embedded icon when set.
	iconPath string

	// Transport settings used when no custom OCIClient is provided.
	plainHTTP    *bool
	dockerConfig bool
	userAgent    string
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New creates a new cache client for cfg.
//
// If no OCIClient is provided via WithOCIClient, a default ORAS-based
// client is created. Without credentials or WithDockerConfig the client is
// anonymous and, unless the URL says otherwise, talks plain HTTP.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.plainHTTP == nil {
		plain := cfg.plainHTTPDefault(c.dockerConfig)
		c.plainHTTP = &plain
	}

	if c.oci == nil {
		c.oci = oras.New(c.orasOptions()...)
	}

	return c, nil
}

// orasOptions translates the client settings into ORAS client options.
func (c *Client) orasOptions() []oras.Option {
	orasOpts := []oras.Option{oras.WithPlainHTTP(*c.plainHTTP)}
	switch {
	case c.cfg.HasCredentials():
		orasOpts = append(orasOpts, oras.WithStaticCredentials(c.cfg.Host(), c.cfg.Username, c.cfg.Password))
	case c.dockerConfig:
		orasOpts = append(orasOpts, oras.WithDockerConfig())
	default:
		orasOpts = append(orasOpts, oras.WithAnonymous())
	}
	if c.userAgent != "" {
		orasOpts = append(orasOpts, oras.WithUserAgent(c.userAgent))
	}
	if c.logger != nil {
		orasOpts = append(orasOpts, oras.WithLogger(c.logger))
	}
	return orasOpts
}

// Config returns the configuration the client was created with.
func (c *Client) Config() Config {
	return c.cfg
}
