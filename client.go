package jobcache

import (
	"github.com/meigma/jobcache/registry"
)

// Client provides cache operations against an OCI registry.
//
// Client wraps a [registry.Client] and adds namespace handling for job
// names. All cache operations (Exists, Upload, Download, Delete,
// TestConnection) are promoted from the wrapped client.
type Client struct {
	*registry.Client

	cfg     registry.Config
	regOpts []registry.Option
}

// NewClient creates a new cache client for the registry at registryURL.
//
// If no credentials are configured, anonymous access is used.
func NewClient(registryURL string, opts ...Option) (*Client, error) {
	c := &Client{
		cfg: registry.Config{RegistryURL: registryURL},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	rc, err := registry.New(c.cfg, c.regOpts...)
	if err != nil {
		return nil, err
	}
	c.Client = rc
	return c, nil
}

// Key returns the full name for a job in the client's namespace.
func (c *Client) Key(jobName string) string {
	return registry.Key(c.cfg.Namespace, jobName)
}

// Re-exported types from the registry package.
type (
	// UploadOption configures an Upload operation.
	UploadOption = registry.UploadOption

	// DownloadOption configures a Download operation.
	DownloadOption = registry.DownloadOption

	// ProgressEvent represents a progress update during upload or download.
	ProgressEvent = registry.ProgressEvent

	// ProgressFunc receives progress updates during operations.
	ProgressFunc = registry.ProgressFunc

	// Compression identifies how a cached archive is packed.
	Compression = registry.Compression
)

// WithAnnotations sets additional annotations on the uploaded manifest.
func WithAnnotations(annotations map[string]string) UploadOption {
	return registry.WithAnnotations(annotations)
}

// WithUploadProgress sets a callback to receive progress updates during upload.
func WithUploadProgress(fn ProgressFunc) UploadOption {
	return registry.WithUploadProgress(fn)
}

// WithDownloadProgress sets a callback to receive progress updates during download.
func WithDownloadProgress(fn ProgressFunc) DownloadOption {
	return registry.WithDownloadProgress(fn)
}
