package jobcache

import (
	"github.com/meigma/jobcache/registry"
)

// Errors re-exported from registry.
var (
	// ErrNotFound is returned when a cache entry does not exist.
	ErrNotFound = registry.ErrNotFound

	// ErrInvalidReference is returned when fullName and path do not form a valid reference.
	ErrInvalidReference = registry.ErrInvalidReference

	// ErrInvalidConfig is returned when the client configuration is incomplete.
	ErrInvalidConfig = registry.ErrInvalidConfig

	// ErrNoLayer is returned when a cache manifest has no layers.
	ErrNoLayer = registry.ErrNoLayer

	// ErrNoContentLayer is returned when a cache manifest has several layers but no content layer.
	ErrNoContentLayer = registry.ErrNoContentLayer

	// ErrMissingDigest is returned when the content layer has no usable digest.
	ErrMissingDigest = registry.ErrMissingDigest

	// ErrResourceMissing is returned when the source archive or the icon cannot be read.
	ErrResourceMissing = registry.ErrResourceMissing

	// ErrDigestMismatch is returned when downloaded content does not match its digest.
	ErrDigestMismatch = registry.ErrDigestMismatch
)
