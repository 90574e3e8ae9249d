package registry

import (
	"context"
	"fmt"
)

// Delete removes the cache entry (fullName, path) by deleting its manifest.
//
// There is no existence pre-check: deleting a missing entry returns
// ErrNotFound. Whether the referenced blobs are reclaimed is up to the
// registry's garbage collection.
func (c *Client) Delete(ctx context.Context, fullName, path string) error {
	ref, err := c.Reference(fullName, path)
	if err != nil {
		return err
	}

	c.log().Info("deleting artifact", "ref", ref)

	desc, err := c.oci.Resolve(ctx, ref, Tag)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", ref, mapOCIError(err))
	}
	if err := c.oci.DeleteManifest(ctx, ref, &desc); err != nil {
		return fmt.Errorf("delete manifest %s: %w", desc.Digest, mapOCIError(err))
	}

	c.log().Debug("artifact deleted", "ref", ref, "digest", desc.Digest.String())
	return nil
}
