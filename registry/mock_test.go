package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/require"
	orasregistry "oras.land/oras-go/v2/registry"

	"github.com/meigma/jobcache/registry/oras"
)

// mockOCIClient is a func-field OCIClient; unset methods fail.
type mockOCIClient struct {
	PushBlobFunc       func(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error
	FetchBlobFunc      func(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error)
	PushManifestFunc   func(ctx context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error)
	FetchManifestFunc  func(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error)
	ResolveFunc        func(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error)
	TagsFunc           func(ctx context.Context, repoRef string) ([]string, error)
	DeleteManifestFunc func(ctx context.Context, repoRef string, desc *ocispec.Descriptor) error
}

var errNotImplemented = errors.New("not implemented in mock")

func (m *mockOCIClient) PushBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor, r io.Reader) error {
	if m.PushBlobFunc != nil {
		return m.PushBlobFunc(ctx, repoRef, desc, r)
	}
	return errNotImplemented
}

func (m *mockOCIClient) FetchBlob(ctx context.Context, repoRef string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	if m.FetchBlobFunc != nil {
		return m.FetchBlobFunc(ctx, repoRef, desc)
	}
	return nil, errNotImplemented
}

func (m *mockOCIClient) PushManifest(ctx context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	if m.PushManifestFunc != nil {
		return m.PushManifestFunc(ctx, repoRef, tag, manifest)
	}
	return ocispec.Descriptor{}, errNotImplemented
}

func (m *mockOCIClient) FetchManifest(ctx context.Context, repoRef string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	if m.FetchManifestFunc != nil {
		return m.FetchManifestFunc(ctx, repoRef, expected)
	}
	return ocispec.Manifest{}, nil, errNotImplemented
}

func (m *mockOCIClient) Resolve(ctx context.Context, repoRef, ref string) (ocispec.Descriptor, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, repoRef, ref)
	}
	return ocispec.Descriptor{}, errNotImplemented
}

func (m *mockOCIClient) Tags(ctx context.Context, repoRef string) ([]string, error) {
	if m.TagsFunc != nil {
		return m.TagsFunc(ctx, repoRef)
	}
	return nil, errNotImplemented
}

func (m *mockOCIClient) DeleteManifest(ctx context.Context, repoRef string, desc *ocispec.Descriptor) error {
	if m.DeleteManifestFunc != nil {
		return m.DeleteManifestFunc(ctx, repoRef, desc)
	}
	return errNotImplemented
}

// memRegistry is an in-memory OCIClient with registry-like semantics:
// blobs and manifests are content addressed, tags are per repository and
// missing objects fail with oras.ErrNotFound.
type memRegistry struct {
	mu        sync.Mutex
	blobs     map[digest.Digest][]byte
	manifests map[digest.Digest][]byte
	repos     map[string]map[string]ocispec.Descriptor // repository -> tag -> manifest
	pushes    []string                                 // media types in push order
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		blobs:     make(map[digest.Digest][]byte),
		manifests: make(map[digest.Digest][]byte),
		repos:     make(map[string]map[string]ocispec.Descriptor),
	}
}

func repoName(ref string) (string, error) {
	r, err := orasregistry.ParseReference(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", oras.ErrInvalidReference, err)
	}
	return r.Registry + "/" + r.Repository, nil
}

func (m *memRegistry) PushBlob(_ context.Context, _ string, desc *ocispec.Descriptor, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if digest.FromBytes(data) != desc.Digest || int64(len(data)) != desc.Size {
		return fmt.Errorf("blob does not match descriptor %s", desc.Digest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[desc.Digest] = data
	m.pushes = append(m.pushes, desc.MediaType)
	return nil
}

func (m *memRegistry) FetchBlob(_ context.Context, _ string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[desc.Digest]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", desc.Digest, oras.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memRegistry) PushManifest(_ context.Context, repoRef, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	repo, err := repoName(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	raw, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    digest.FromBytes(raw),
		Size:      int64(len(raw)),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[desc.Digest] = raw
	if m.repos[repo] == nil {
		m.repos[repo] = make(map[string]ocispec.Descriptor)
	}
	m.repos[repo][tag] = desc
	m.pushes = append(m.pushes, desc.MediaType)
	return desc, nil
}

func (m *memRegistry) FetchManifest(_ context.Context, _ string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	m.mu.Lock()
	raw, ok := m.manifests[expected.Digest]
	m.mu.Unlock()
	if !ok {
		return ocispec.Manifest{}, nil, fmt.Errorf("manifest %s: %w", expected.Digest, oras.ErrNotFound)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ocispec.Manifest{}, nil, err
	}
	return manifest, raw, nil
}

func (m *memRegistry) Resolve(_ context.Context, repoRef, ref string) (ocispec.Descriptor, error) {
	repo, err := repoName(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.Contains(ref, ":") {
		raw, ok := m.manifests[digest.Digest(ref)]
		if !ok {
			return ocispec.Descriptor{}, fmt.Errorf("%s: %w", ref, oras.ErrNotFound)
		}
		return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: digest.Digest(ref), Size: int64(len(raw))}, nil
	}
	desc, ok := m.repos[repo][ref]
	if !ok {
		return ocispec.Descriptor{}, fmt.Errorf("%s:%s: %w", repo, ref, oras.ErrNotFound)
	}
	return desc, nil
}

func (m *memRegistry) Tags(_ context.Context, repoRef string) ([]string, error) {
	repo, err := repoName(repoRef)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tags, ok := m.repos[repo]
	if !ok {
		return nil, fmt.Errorf("repository %s: %w", repo, oras.ErrNotFound)
	}
	out := make([]string, 0, len(tags))
	for tag := range tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRegistry) DeleteManifest(_ context.Context, repoRef string, desc *ocispec.Descriptor) error {
	repo, err := repoName(repoRef)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.manifests[desc.Digest]; !ok {
		return fmt.Errorf("manifest %s: %w", desc.Digest, oras.ErrNotFound)
	}
	delete(m.manifests, desc.Digest)
	for tag, tagged := range m.repos[repo] {
		if tagged.Digest == desc.Digest {
			delete(m.repos[repo], tag)
		}
	}
	return nil
}

// putManifest stores blobs and a manifest with the given layers under ref.
func (m *memRegistry) putManifest(t *testing.T, ref string, layers []ocispec.Descriptor, blobs ...[]byte) {
	t.Helper()
	for _, b := range blobs {
		desc := ocispec.Descriptor{Digest: digest.FromBytes(b), Size: int64(len(b))}
		require.NoError(t, m.PushBlob(context.Background(), ref, &desc, bytes.NewReader(b)))
	}
	manifest := ocispec.Manifest{
		MediaType: ocispec.MediaTypeImageManifest,
		Config:    ocispec.DescriptorEmptyJSON,
		Layers:    layers,
	}
	manifest.SchemaVersion = 2
	_, err := m.PushManifest(context.Background(), ref, Tag, &manifest)
	require.NoError(t, err)
}

// layerFor returns a descriptor for data with the given media type.
func layerFor(mediaType string, data []byte) ocispec.Descriptor {
	return ocispec.Descriptor{MediaType: mediaType, Digest: digest.FromBytes(data), Size: int64(len(data))}
}

// newTestClient returns a client for registry.example.com backed by oci.
func newTestClient(t *testing.T, oci OCIClient, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithOCIClient(oci)}, opts...)
	c, err := New(Config{RegistryURL: "registry.example.com", Namespace: "ci"}, opts...)
	require.NoError(t, err)
	return c
}
