package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/jobcache/assets"
)

// Upload stores the file at source as the cache entry for (fullName, path).
//
// The content layer media type is derived from the extension of path (see
// CompressionFromPath). The entry is pushed as content blob, icon blob and
// empty config, then the manifest is tagged "latest". Readers therefore see
// either the previous entry or the complete new one. Blobs pushed before a
// failure are left in the registry; nothing references them.
func (c *Client) Upload(ctx context.Context, fullName, path, source string, opts ...UploadOption) error {
	cfg := uploadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ref, err := c.Reference(fullName, path)
	if err != nil {
		return err
	}

	// Local resources are checked before any network call.
	icon, err := c.loadIcon()
	if err != nil {
		return err
	}
	content, contentDesc, err := openContent(source, CompressionFromPath(path).MediaType())
	if err != nil {
		return err
	}
	defer content.Close()
	contentDesc.Annotations = map[string]string{
		ocispec.AnnotationTitle: filepath.Base(path),
	}

	c.log().Info("uploading artifact", "ref", ref, "media_type", contentDesc.MediaType, "size", contentDesc.Size)

	// Step 1: Push content blob
	cfg.progress.report(StagePushingContent, 0, contentDesc.Size)
	body := withProgress(content, cfg.progress, StagePushingContent, contentDesc.Size)
	if pushErr := c.oci.PushBlob(ctx, ref, &contentDesc, body); pushErr != nil {
		return fmt.Errorf("push content blob: %w", mapOCIError(pushErr))
	}

	// Step 2: Push icon blob
	iconDesc := ocispec.Descriptor{
		MediaType: MediaTypeIcon,
		Digest:    digest.FromBytes(icon),
		Size:      int64(len(icon)),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: assets.IconName,
			AnnotationIcon:          "",
		},
	}
	cfg.progress.report(StagePushingIcon, 0, iconDesc.Size)
	if pushErr := c.oci.PushBlob(ctx, ref, &iconDesc, bytes.NewReader(icon)); pushErr != nil {
		return fmt.Errorf("push icon blob: %w", mapOCIError(pushErr))
	}
	cfg.progress.report(StagePushingIcon, iconDesc.Size, iconDesc.Size)

	// Step 3: Push empty config blob
	configDesc, err := c.pushEmptyConfig(ctx, ref)
	if err != nil {
		return fmt.Errorf("push config: %w", err)
	}

	// Step 4: Push manifest last so the tag only ever points at complete entries
	cfg.progress.report(StagePushingManifest, 0, 0)
	manifest := buildManifest(fullName, &configDesc, []ocispec.Descriptor{contentDesc, iconDesc}, cfg.annotations)
	manifestDesc, err := c.oci.PushManifest(ctx, ref, Tag, &manifest)
	if err != nil {
		return fmt.Errorf("push manifest: %w", mapOCIError(err))
	}
	cfg.progress.report(StagePushingManifest, manifestDesc.Size, manifestDesc.Size)

	c.log().Debug("artifact uploaded", "ref", ref, "digest", manifestDesc.Digest.String())
	return nil
}

// loadIcon returns the icon bytes, from WithIconFile when set.
func (c *Client) loadIcon() ([]byte, error) {
	icon := assets.Icon
	if c.iconPath != "" {
		data, err := os.ReadFile(c.iconPath)
		if err != nil {
			return nil, fmt.Errorf("%w: icon: %v", ErrResourceMissing, err)
		}
		icon = data
	}
	if len(icon) == 0 {
		return nil, fmt.Errorf("%w: icon is empty", ErrResourceMissing)
	}
	return icon, nil
}

// pushEmptyConfig pushes the empty JSON config blob required by OCI manifests.
func (c *Client) pushEmptyConfig(ctx context.Context, ref string) (ocispec.Descriptor, error) {
	config := []byte("{}")
	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeEmptyJSON,
		Digest:    digest.FromBytes(config),
		Size:      int64(len(config)),
	}
	if err := c.oci.PushBlob(ctx, ref, &desc, bytes.NewReader(config)); err != nil {
		return ocispec.Descriptor{}, mapOCIError(err)
	}
	return desc, nil
}

// openContent opens the regular file at path and computes its descriptor.
// The returned file is positioned at the start and must be closed by the caller.
func openContent(path, mediaType string) (*os.File, ocispec.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ocispec.Descriptor{}, fmt.Errorf("%w: source: %v", ErrResourceMissing, err)
	}

	desc, err := describe(f, mediaType)
	if err != nil {
		f.Close()
		return nil, ocispec.Descriptor{}, fmt.Errorf("%w: source %s: %v", ErrResourceMissing, path, err)
	}
	return f, desc, nil
}

// describe hashes f and rewinds it.
func describe(f *os.File, mediaType string) (ocispec.Descriptor, error) {
	info, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if !info.Mode().IsRegular() {
		return ocispec.Descriptor{}, errors.New("not a regular file")
	}

	digester := digest.Canonical.Digester()
	size, err := io.Copy(digester.Hash(), f)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ocispec.Descriptor{}, err
	}

	return ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    digester.Digest(),
		Size:      size,
	}, nil
}

// buildManifest creates an OCI manifest for a cache entry.
func buildManifest(fullName string, configDesc *ocispec.Descriptor, layers []ocispec.Descriptor, customAnnotations map[string]string) ocispec.Manifest {
	annotations := make(map[string]string, len(customAnnotations)+2)
	for k, v := range customAnnotations {
		annotations[k] = v
	}
	if _, ok := annotations[ocispec.AnnotationCreated]; !ok {
		annotations[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	}
	annotations[AnnotationFullName] = fullName

	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       *configDesc,
		Layers:       layers,
		Annotations:  annotations,
	}
}
