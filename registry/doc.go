// Package registry turns an OCI registry into a key/value cache for build
// artifacts.
//
// A cache entry is addressed by a full job name and a path. Each entry is
// stored as a tagged OCI artifact whose manifest references one content
// layer, holding the cached archive, and one icon layer used by registry
// UIs. The tag is always "latest": pushing again replaces the entry.
//
// The client uses the oras subpackage for low-level OCI operations.
package registry
