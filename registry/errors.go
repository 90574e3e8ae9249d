package registry

import "errors"

// Sentinel errors for client operations.
var (
	// ErrNotFound is returned when a cache entry does not exist at the reference.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference cannot be built or parsed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidConfig is returned when the client configuration is incomplete.
	ErrInvalidConfig = errors.New("registry: invalid config")

	// ErrNoLayer is returned when a manifest references no layers at all.
	ErrNoLayer = errors.New("registry: artifact manifest doesn't contain any layer")

	// ErrNoContentLayer is returned when a multi-layer manifest has no content layer.
	ErrNoContentLayer = errors.New("registry: artifact manifest doesn't contain any content layer")

	// ErrMissingDigest is returned when the selected layer has no usable digest.
	ErrMissingDigest = errors.New("registry: layer digest cannot be empty")

	// ErrResourceMissing is returned when the source file or the icon cannot be read.
	ErrResourceMissing = errors.New("registry: resource missing")

	// ErrDigestMismatch is returned when downloaded content does not match its digest.
	ErrDigestMismatch = errors.New("registry: digest mismatch")
)
