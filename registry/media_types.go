package registry

import (
	"path/filepath"
	"strings"
)

// Media types and annotation keys for cache artifacts in OCI registries.
const (
	// ArtifactType identifies cache entries as an OCI 1.1 artifact type.
	ArtifactType = "application/vnd.jenkins.jobcacher.manifest.v1+json"

	// MediaTypeContentPrefix prefixes the media type of every content layer.
	MediaTypeContentPrefix = "application/vnd.jenkins.jobcacher.content"

	// MediaTypeIcon is the media type of the icon layer.
	MediaTypeIcon = "image/png"

	// AnnotationFullName records the job that produced the entry.
	AnnotationFullName = "io.jenkins.jobcacher.fullname"

	// AnnotationIcon marks a layer as the artifact icon for Harbor.
	AnnotationIcon = "io.goharbor.artifact.v1alpha1.icon"
)

// Compression identifies how the cached archive is packed.
type Compression string

// Supported compression kinds.
const (
	CompressionTar     Compression = "tar"
	CompressionZip     Compression = "zip"
	CompressionTarGzip Compression = "tar+gzip"
	CompressionTarZstd Compression = "tar+zstd"
)

// CompressionFromPath derives the compression kind from the lowercase
// extension of path. Unknown or missing extensions default to tar.
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "zip":
		return CompressionZip
	case "gz":
		return CompressionTarGzip
	case "zst":
		return CompressionTarZstd
	default:
		return CompressionTar
	}
}

// MediaType returns the content layer media type for the compression kind.
func (c Compression) MediaType() string {
	return MediaTypeContentPrefix + ".v1." + string(c)
}
