package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/jobcache"
)

// errEntryMissing makes exists exit non-zero without printing an error.
var errEntryMissing = errors.New("cache entry missing")

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the registry accepts push and delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.TestConnection(cmd.Context()); err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func (a *app) refCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ref <job> <path>",
		Short: "Print the registry reference of a cache entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.client.Reference(a.client.Key(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}
}

func (a *app) existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <job> <path>",
		Short: "Report whether a cache entry exists",
		Long:  "Prints true or false. Exits with status 1 when the entry is missing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := a.client.Exists(cmd.Context(), a.client.Key(args[0]), args[1])
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			if !ok {
				return errEntryMissing
			}
			return nil
		},
	}
}

func (a *app) uploadCmd() *cobra.Command {
	var annotations map[string]string
	cmd := &cobra.Command{
		Use:   "upload <job> <path> <source>",
		Short: "Upload an archive as the cache entry for job and path",
		Long: `Uploads the file at source. The content media type is derived from the
extension of path: .zip, .gz and .zst are recognized, anything else is tar.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []jobcache.UploadOption{jobcache.WithUploadProgress(a.progressLogger(args[1]))}
			if len(annotations) > 0 {
				opts = append(opts, jobcache.WithAnnotations(annotations))
			}
			return a.client.Upload(cmd.Context(), a.client.Key(args[0]), args[1], args[2], opts...)
		},
	}
	cmd.Flags().StringToStringVar(&annotations, "annotation", nil, "manifest annotation key=value (repeatable)")
	return cmd
}

func (a *app) downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <job> <path> <target>",
		Short: "Download the cache entry for job and path to target",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Download(cmd.Context(), a.client.Key(args[0]), args[1], args[2],
				jobcache.WithDownloadProgress(a.progressLogger(args[1])))
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "delete <job> <path>...",
		Short: "Delete one or more cache entries of a job",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
			}
			key := a.client.Key(args[0])

			// Deletes are independent: one failure does not cancel the others.
			var mu sync.Mutex
			var g errgroup.Group
			g.SetLimit(concurrency)
			for _, path := range args[1:] {
				g.Go(func() error {
					if err := a.client.Delete(cmd.Context(), key, path); err != nil {
						a.logger.Error("delete failed", "job", key, "path", path, "error", err)
						return fmt.Errorf("delete %s: %w", path, err)
					}
					mu.Lock()
					fmt.Fprintln(cmd.OutOrStdout(), "deleted", path)
					mu.Unlock()
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent deletes")
	return cmd
}

// progressLogger logs the start of each stage at debug level.
func (a *app) progressLogger(path string) jobcache.ProgressFunc {
	var last *jobcache.ProgressEvent
	return func(e jobcache.ProgressEvent) {
		if last == nil || last.Stage != e.Stage {
			a.logger.Debug(e.Stage.String(), "path", path, "total", e.BytesTotal)
		}
		last = &e
	}
}
