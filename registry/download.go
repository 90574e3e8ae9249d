package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Download writes the content of the cache entry (fullName, path) to target.
//
// The content is streamed to a temporary file next to target, checked
// against the layer digest and size, then renamed over target. On failure
// target is left as it was.
func (c *Client) Download(ctx context.Context, fullName, path, target string, opts ...DownloadOption) error {
	cfg := downloadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ref, err := c.Reference(fullName, path)
	if err != nil {
		return err
	}

	c.log().Info("downloading artifact", "ref", ref, "target", target)

	// Step 1: Resolve and fetch manifest
	cfg.progress.report(StageFetchingManifest, 0, 0)
	desc, err := c.oci.Resolve(ctx, ref, Tag)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", ref, mapOCIError(err))
	}
	manifest, _, err := c.oci.FetchManifest(ctx, ref, &desc)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", mapOCIError(err))
	}
	cfg.progress.report(StageFetchingManifest, desc.Size, desc.Size)

	// Step 2: Pick the content layer
	layer, err := selectContentLayer(manifest.Layers)
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	c.log().Debug("selected layer", "ref", ref, "media_type", layer.MediaType,
		"kind", ClassifyLayer(&layer).String(), "digest", layer.Digest.String())

	// Step 3: Stream the blob to disk
	rc, err := c.oci.FetchBlob(ctx, ref, &layer)
	if err != nil {
		return fmt.Errorf("fetch content blob: %w", mapOCIError(err))
	}
	defer rc.Close()

	cfg.progress.report(StageFetchingContent, 0, layer.Size)
	body := withProgress(rc, cfg.progress, StageFetchingContent, layer.Size)
	return writeVerified(target, body, &layer)
}

// writeVerified copies r into target through a temporary file in the same
// directory and renames it into place once digest and size match desc.
func writeVerified(target string, r io.Reader, desc *ocispec.Descriptor) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	verifier := desc.Digest.Verifier()
	n, err := io.Copy(io.MultiWriter(tmp, verifier), r)
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	if n != desc.Size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrDigestMismatch, desc.Size, n)
	}
	if !verifier.Verified() {
		return fmt.Errorf("%w: content does not match %s", ErrDigestMismatch, desc.Digest)
	}

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
