package oras

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// MediaTypeDockerManifest is the Docker schema 2 manifest media type.
// Its layer layout is compatible with the OCI image manifest, so artifacts
// pushed by older tooling can still be read.
const MediaTypeDockerManifest = "application/vnd.docker.distribution.manifest.v2+json"

// Client provides generic OCI registry operations.
//
// It wraps ORAS to provide a simplified interface for pushing, fetching and
// deleting blobs and manifests. A Client is safe for concurrent use; it holds
// a single shared auth client whose token cache is reused across requests.
type Client struct {
	plainHTTP  bool
	userAgent  string
	anonymous  bool // skip credential lookup entirely
	credStore  credentials.Store
	authClient *auth.Client
	logger     *slog.Logger
}

// New creates a new OCI client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: "jobcache/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.authClient = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.anonymous || c.credStore == nil {
				return auth.EmptyCredential, nil
			}
			return c.credStore.Get(ctx, hostport)
		},
		Header: http.Header{
			"User-Agent": []string{c.userAgent},
		},
	}

	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// repository creates a Repository for the given reference.
func (c *Client) repository(ref string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}

	repo.PlainHTTP = c.plainHTTP
	repo.Client = c.authClient

	return repo, nil
}

// PushBlob pushes a blob to the repository.
//
// The descriptor must contain the pre-computed digest and size.
// The blob content is read from r, which must provide exactly desc.Size bytes.
func (c *Client) PushBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: content reader is nil", ErrInvalidDescriptor)
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return err
	}

	c.log().Debug("pushing blob", "ref", repoRef, "digest", desc.Digest.String(), "size", desc.Size)
	if err := repo.Push(ctx, *desc, r); err != nil {
		if errors.Is(err, errdef.ErrAlreadyExists) {
			return nil
		}
		return mapError(err)
	}

	return nil
}

// FetchBlob fetches a blob from the repository using the provided descriptor.
//
// The caller is responsible for closing the returned reader.
func (c *Client) FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return nil, err
	}

	rc, err := repo.Fetch(ctx, *desc)
	if err != nil {
		return nil, mapError(err)
	}

	return rc, nil
}

// PushManifest pushes a manifest to the repository and tags it.
//
// The manifest is serialized as an OCI image manifest, which both OCI 1.0
// and 1.1 registries accept.
func (c *Client) PushManifest(ctx context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	if manifest == nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: manifest is nil", ErrManifestInvalid)
	}
	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("marshal manifest: %w", err)
	}

	desc := ocispec.Descriptor{
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: manifest.ArtifactType,
		Digest:       digest.FromBytes(manifestJSON),
		Size:         int64(len(manifestJSON)),
	}

	c.log().Debug("pushing manifest", "ref", repoRef, "tag", tag, "digest", desc.Digest.String())
	if err := repo.PushReference(ctx, desc, bytes.NewReader(manifestJSON), tag); err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}

	return desc, nil
}

// FetchManifest fetches a manifest from the repository by descriptor.
//
// Call Resolve first and pass the resolved descriptor. OCI image manifests
// and Docker schema 2 manifests are accepted; the raw bytes are returned
// alongside the decoded manifest.
func (c *Client) FetchManifest(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	if err := validateDescriptor(expected); err != nil {
		return ocispec.Manifest{}, nil, err
	}
	if expected.MediaType != "" && !isManifestMediaType(expected.MediaType) {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, expected.MediaType)
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Manifest{}, nil, err
	}

	desc, rc, err := repo.FetchReference(ctx, expected.Digest.String())
	if err != nil {
		return ocispec.Manifest{}, nil, mapError(err)
	}
	defer rc.Close()

	if expected.MediaType == "" && desc.MediaType != "" && !isManifestMediaType(desc.MediaType) {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: unsupported media type %s", ErrManifestInvalid, desc.MediaType)
	}

	var reader io.Reader = rc
	if expected.Size > 0 {
		reader = io.LimitReader(rc, expected.Size)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return ocispec.Manifest{}, nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	if manifest.MediaType == "" {
		manifest.MediaType = desc.MediaType
	}

	return manifest, raw, nil
}

// Resolve resolves a reference to a descriptor.
//
// The ref can be a tag or digest.
func (c *Client) Resolve(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error) {
	repo, err := c.repository(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc, err := repo.Resolve(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}

	return desc, nil
}

// Tags lists every tag in the repository, following pagination.
func (c *Client) Tags(ctx context.Context, repoRef string) ([]string, error) {
	repo, err := c.repository(repoRef)
	if err != nil {
		return nil, err
	}

	var tags []string
	err = repo.Tags(ctx, "", func(page []string) error {
		tags = append(tags, page...)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	return tags, nil
}

// DeleteManifest deletes the manifest identified by desc.
//
// The descriptor should come from Resolve so that its media type routes the
// request to the manifest endpoint. Whether the referenced blobs are removed
// is up to the registry.
func (c *Client) DeleteManifest(ctx context.Context, repoRef string, desc *ocispec.Descriptor) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}

	repo, err := c.repository(repoRef)
	if err != nil {
		return err
	}

	target := *desc
	if target.MediaType == "" {
		target.MediaType = ocispec.MediaTypeImageManifest
	}

	c.log().Debug("deleting manifest", "ref", repoRef, "digest", target.Digest.String())
	if err := repo.Manifests().Delete(ctx, target); err != nil {
		return mapError(err)
	}

	return nil
}

// isManifestMediaType reports whether mediaType is a single-image manifest.
func isManifestMediaType(mediaType string) bool {
	return slices.Contains([]string{ocispec.MediaTypeImageManifest, MediaTypeDockerManifest}, mediaType)
}

// validateDescriptor checks that a descriptor is valid for use.
func validateDescriptor(desc *ocispec.Descriptor) error {
	if desc == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if desc.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidDescriptor, desc.Size)
	}
	if desc.Digest == "" {
		return fmt.Errorf("%w: empty digest", ErrInvalidDescriptor)
	}
	if err := desc.Digest.Validate(); err != nil {
		return fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidDescriptor, desc.Digest, err)
	}
	return nil
}

// mapError maps ORAS errors to our sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}
