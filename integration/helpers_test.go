//go:build integration

package integration

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/meigma/jobcache"
)

// Credentials accepted by the authenticated registry.
const (
	testUsername = "jobcache"
	testPassword = "s3cret-token"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error

	authRegistryOnce sync.Once
	authRegistryAddr string
	authRegistryErr  error
)

// getRegistry returns the shared anonymous registry address, starting the
// container if needed. The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background(), nil)
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// getAuthRegistry returns the shared address of a registry that requires
// testUsername/testPassword.
func getAuthRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	authRegistryOnce.Do(func() {
		htpasswd, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
		if err != nil {
			authRegistryErr = err
			return
		}
		authRegistryAddr, authRegistryErr = startRegistryContainer(context.Background(),
			[]byte(testUsername+":"+string(htpasswd)+"\n"))
	})

	if authRegistryErr != nil {
		tb.Fatalf("start auth registry container: %v", authRegistryErr)
	}

	return authRegistryAddr
}

// startRegistryContainer starts a registry:2 container with deletes enabled
// and returns the host:port address. A non-nil htpasswd enables basic auth.
func startRegistryContainer(ctx context.Context, htpasswd []byte) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		Env: map[string]string{
			"REGISTRY_STORAGE_DELETE_ENABLED": "true",
		},
		WaitingFor: wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isRegistryUp),
	}
	if htpasswd != nil {
		req.Env["REGISTRY_AUTH"] = "htpasswd"
		req.Env["REGISTRY_AUTH_HTPASSWD_REALM"] = "jobcache"
		req.Env["REGISTRY_AUTH_HTPASSWD_PATH"] = "/auth/htpasswd"
		req.Files = []testcontainers.ContainerFile{{
			Reader:            bytes.NewReader(htpasswd),
			ContainerFilePath: "/auth/htpasswd",
			FileMode:          0o644,
		}}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

// isRegistryUp accepts 2xx, and 401 from a registry with auth enabled.
func isRegistryUp(status int) bool {
	return (status >= 200 && status < 300) || status == 401
}

// --- Test Client Factory ---

// newTestClient creates an anonymous client for the local test registry.
// Anonymous clients default to plain HTTP.
func newTestClient(tb testing.TB, addr string, opts ...jobcache.Option) *jobcache.Client {
	tb.Helper()

	allOpts := append([]jobcache.Option{jobcache.WithNamespace("test")}, opts...)
	client, err := jobcache.NewClient(addr, allOpts...)
	require.NoError(tb, err, "create test client")

	return client
}

// --- Archive Fixtures ---

// workspaceFiles is the content packed into every fixture archive.
var workspaceFiles = map[string][]byte{
	"node_modules/.package-lock.json": []byte(`{"lockfileVersion": 3}`),
	"target/classes/App.class":        makeRandomContent(4 * 1024),
	"build/report.txt":                makeCompressibleContent(64 * 1024),
}

// writeArchive packs files into an archive at dir/name. The format follows
// the extension: .zip, .tar.gz, .tar.zst or plain tar.
func writeArchive(tb testing.TB, dir, name string, files map[string][]byte) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(tb, err)
	defer f.Close()

	switch {
	case strings.HasSuffix(name, ".zip"):
		zw := zip.NewWriter(f)
		for _, p := range sortedKeys(files) {
			w, err := zw.Create(p)
			require.NoError(tb, err)
			_, err = w.Write(files[p])
			require.NoError(tb, err)
		}
		require.NoError(tb, zw.Close())
	case strings.HasSuffix(name, ".gz"):
		gw := gzip.NewWriter(f)
		writeTar(tb, gw, files)
		require.NoError(tb, gw.Close())
	case strings.HasSuffix(name, ".zst"):
		zw, err := zstd.NewWriter(f)
		require.NoError(tb, err)
		writeTar(tb, zw, files)
		require.NoError(tb, zw.Close())
	default:
		writeTar(tb, f, files)
	}

	return path
}

func writeTar(tb testing.TB, w io.Writer, files map[string][]byte) {
	tb.Helper()

	tw := tar.NewWriter(w)
	for _, p := range sortedKeys(files) {
		require.NoError(tb, tw.WriteHeader(&tar.Header{
			Name: p,
			Mode: 0o644,
			Size: int64(len(files[p])),
		}))
		_, err := tw.Write(files[p])
		require.NoError(tb, err)
	}
	require.NoError(tb, tw.Close())
}

// readArchive unpacks the archive at path into a file map.
func readArchive(tb testing.TB, path string) map[string][]byte {
	tb.Helper()

	out := make(map[string][]byte)
	if strings.HasSuffix(path, ".zip") {
		zr, err := zip.OpenReader(path)
		require.NoError(tb, err)
		defer zr.Close()
		for _, zf := range zr.File {
			rc, err := zf.Open()
			require.NoError(tb, err)
			data, err := io.ReadAll(rc)
			require.NoError(tb, err)
			require.NoError(tb, rc.Close())
			out[zf.Name] = data
		}
		return out
	}

	f, err := os.Open(path)
	require.NoError(tb, err)
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(f)
		require.NoError(tb, err)
		defer gr.Close()
		r = gr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		require.NoError(tb, err)
		defer zr.Close()
		r = zr
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(tb, err)
		data, err := io.ReadAll(tr)
		require.NoError(tb, err)
		out[hdr.Name] = data
	}
	return out
}

func sortedKeys(files map[string][]byte) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// makeCompressibleContent creates content that benefits from compression.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// makeRandomContent creates random binary content.
func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}
