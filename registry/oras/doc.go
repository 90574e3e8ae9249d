// Package oras provides a generic OCI client layer wrapping the ORAS library.
//
// Client provides payload-agnostic operations for interacting with OCI
// registries: blob and manifest push/fetch, tag listing and manifest
// deletion. Authentication and HTTP retries are handled by ORAS.
package oras
