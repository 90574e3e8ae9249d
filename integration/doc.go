//go:build integration

// Package integration provides integration tests for the jobcache library.
//
// These tests require Docker and spin up real OCI registries using testcontainers:
// an anonymous registry and one protected by htpasswd basic auth, both with
// manifest deletion enabled.
// Run with: go test -tags=integration ./integration/...
package integration
