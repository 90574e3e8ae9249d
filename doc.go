// Package jobcache stores build caches as artifacts in an OCI registry.
//
// A cache entry is one archive file identified by a job full name and an
// archive path. It is stored at "<registry>/<fullName>/<path>:latest" as an
// OCI artifact with two layers:
//   - Content layer: the archive, with a media type derived from its extension
//   - Icon layer: a small PNG that registry UIs such as Harbor display
//
// # Quick Start
//
// Upload a cache archive and restore it in a later build:
//
//	c, err := jobcache.NewClient("harbor.example.com",
//	    jobcache.WithNamespace("ci"),
//	    jobcache.WithCredentials("robot$ci", token),
//	)
//	if err != nil {
//	    return err
//	}
//	key := c.Key("folder/my-job")
//	err = c.Upload(ctx, key, "deps.tar.zst", "/tmp/deps.tar.zst")
//
//	if c.Exists(ctx, key, "deps.tar.zst") {
//	    err = c.Download(ctx, key, "deps.tar.zst", "/tmp/restore.tar.zst")
//	}
//
// # Authentication
//
// Without credentials the client is anonymous and talks plain HTTP unless
// the registry URL carries an https:// scheme. Use [WithDockerConfig] to
// read credentials from ~/.docker/config.json instead of passing them in.
//
// Call [Client.TestConnection] to check that the configured identity may
// both push and delete before relying on the cache.
package jobcache
