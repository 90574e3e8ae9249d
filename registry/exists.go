package registry

import (
	"context"
	"slices"
)

// Exists reports whether a cache entry is stored under (fullName, path).
//
// Exists is a best-effort probe: it lists the repository tags, and if
// "latest" is among them resolves and fetches the manifest. Any failure,
// whether not-found, network or auth, is logged at debug level and reported
// as false. A false negative only costs a redundant upload.
func (c *Client) Exists(ctx context.Context, fullName, path string) bool {
	ref, err := c.Reference(fullName, path)
	if err != nil {
		c.log().Debug("artifact does not exist", "full_name", fullName, "path", path, "error", err)
		return false
	}

	tags, err := c.oci.Tags(ctx, ref)
	if err != nil {
		c.log().Debug("artifact does not exist", "ref", ref, "error", mapOCIError(err))
		return false
	}
	if !slices.Contains(tags, Tag) {
		c.log().Debug("artifact does not exist", "ref", ref, "reason", "tag not listed")
		return false
	}

	desc, err := c.oci.Resolve(ctx, ref, Tag)
	if err != nil {
		c.log().Debug("artifact does not exist", "ref", ref, "error", mapOCIError(err))
		return false
	}
	if _, _, err := c.oci.FetchManifest(ctx, ref, &desc); err != nil {
		c.log().Debug("artifact does not exist", "ref", ref, "error", mapOCIError(err))
		return false
	}

	c.log().Debug("artifact exists", "full_name", fullName, "path", path, "digest", desc.Digest.String())
	return true
}
