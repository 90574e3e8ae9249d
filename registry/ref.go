package registry

import (
	"fmt"
	"strings"

	orasregistry "oras.land/oras-go/v2/registry"
)

// Tag is the only tag cache entries are stored under.
const Tag = "latest"

// Key joins a namespace and a job name into the fullName used by the
// cache operations. An empty namespace returns name unchanged.
func Key(namespace, name string) string {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// Reference returns the registry reference for a cache entry:
// "<host>/<fullName>/<path>:latest".
//
// The inputs are used verbatim; anything the OCI reference grammar rejects
// (upper case, empty segments, ...) fails with ErrInvalidReference.
func (c *Client) Reference(fullName, path string) (string, error) {
	if fullName == "" || path == "" {
		return "", fmt.Errorf("%w: full name and path are required", ErrInvalidReference)
	}
	return validateRef(fmt.Sprintf("%s/%s/%s:%s", c.cfg.Host(), fullName, path, Tag))
}

// validateRef checks ref against the OCI reference grammar.
func validateRef(ref string) (string, error) {
	if _, err := orasregistry.ParseReference(ref); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}
	return ref, nil
}
