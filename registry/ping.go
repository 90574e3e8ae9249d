package registry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// connectionTestName is the repository and payload used by TestConnection.
const connectionTestName = "jobcache-connection-test"

// TestConnection checks that the configured URL and credentials allow both
// push and delete.
//
// It pushes a throwaway artifact to "<host>/<namespace>/jobcache-connection-test:latest"
// and deletes its manifest by digest. Every error is returned.
func (c *Client) TestConnection(ctx context.Context) error {
	ref, err := validateRef(fmt.Sprintf("%s/%s:%s", c.cfg.Host(), Key(c.cfg.Namespace, connectionTestName), Tag))
	if err != nil {
		return err
	}

	c.log().Info("testing registry connection", "ref", ref)

	tmp, err := os.CreateTemp("", "jobcache-*-"+connectionTestName)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.WriteString(connectionTestName); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp file: %w", err)
	}
	layer, err := describe(tmp, ocispec.MediaTypeImageLayer)
	if err != nil {
		return fmt.Errorf("describe temp file: %w", err)
	}

	if err := c.oci.PushBlob(ctx, ref, &layer, tmp); err != nil {
		return fmt.Errorf("push blob: %w", mapOCIError(err))
	}
	configDesc, err := c.pushEmptyConfig(ctx, ref)
	if err != nil {
		return fmt.Errorf("push config: %w", err)
	}

	manifest := ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       configDesc,
		Layers:       []ocispec.Descriptor{layer},
	}
	manifestDesc, err := c.oci.PushManifest(ctx, ref, Tag, &manifest)
	if err != nil {
		return fmt.Errorf("push manifest: %w", mapOCIError(err))
	}

	if err := c.oci.DeleteManifest(ctx, ref, &manifestDesc); err != nil {
		return fmt.Errorf("delete manifest %s: %w", manifestDesc.Digest, mapOCIError(err))
	}

	c.log().Debug("registry connection ok", "ref", ref)
	return nil
}
