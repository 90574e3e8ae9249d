package registry

import (
	"fmt"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// LayerKind classifies the layers of a cache manifest.
type LayerKind uint8

const (
	// LayerUnknown is any layer this package did not produce.
	LayerUnknown LayerKind = iota

	// LayerContent holds the cached archive.
	LayerContent

	// LayerMetadata is an auxiliary attachment such as the icon.
	LayerMetadata
)

// String returns the string representation of the kind.
func (k LayerKind) String() string {
	switch k {
	case LayerContent:
		return "content"
	case LayerMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// ClassifyLayer returns the kind of desc based on its media type and annotations.
func ClassifyLayer(desc *ocispec.Descriptor) LayerKind {
	switch {
	case strings.HasPrefix(desc.MediaType, MediaTypeContentPrefix):
		return LayerContent
	case desc.MediaType == MediaTypeIcon:
		return LayerMetadata
	default:
		if _, ok := desc.Annotations[AnnotationIcon]; ok {
			return LayerMetadata
		}
		return LayerUnknown
	}
}

// selectContentLayer picks the layer holding the cached payload.
//
// A single layer is used whatever its media type, which keeps artifacts
// pushed by other tools readable. With several layers the first content
// layer wins.
func selectContentLayer(layers []ocispec.Descriptor) (ocispec.Descriptor, error) {
	var selected *ocispec.Descriptor
	switch len(layers) {
	case 0:
		return ocispec.Descriptor{}, ErrNoLayer
	case 1:
		selected = &layers[0]
	default:
		for i := range layers {
			if ClassifyLayer(&layers[i]) == LayerContent {
				selected = &layers[i]
				break
			}
		}
		if selected == nil {
			return ocispec.Descriptor{}, fmt.Errorf("%w: %d layers", ErrNoContentLayer, len(layers))
		}
	}

	if selected.Digest == "" {
		return ocispec.Descriptor{}, ErrMissingDigest
	}
	if err := selected.Digest.Validate(); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrMissingDigest, err)
	}
	return *selected, nil
}
