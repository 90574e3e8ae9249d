package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meigma/jobcache"
	"github.com/meigma/jobcache/internal/config"
)

// app carries state shared by all subcommands.
type app struct {
	cfgFile string
	stderr  io.Writer

	cfg    *config.Config
	logger *slog.Logger
	client *jobcache.Client

	// newClient builds the cache client; tests replace it.
	newClient func(cfg *config.Config, logger *slog.Logger) (*jobcache.Client, error)
}

func newRootCmd() *cobra.Command {
	a := &app{
		stderr: os.Stderr,
		newClient: func(cfg *config.Config, logger *slog.Logger) (*jobcache.Client, error) {
			return cfg.NewClient(logger)
		},
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobcache",
		Short: "Store build cache archives in an OCI registry",
		Long: `jobcache stores build cache archives as OCI artifacts.

Each entry is addressed by a job name and an archive path and lives at
<registry>/<namespace>/<job>/<path>:latest.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.String("registry", "", "registry URL, e.g. ghcr.io or http://localhost:5000")
	flags.String("namespace", "", "namespace prepended to job names")
	flags.String("username", "", "registry username")
	flags.String("password", "", "registry password or token")
	flags.String("plain-http", config.PlainHTTPAuto, "use plain HTTP: auto, true or false")
	flags.Bool("docker-config", false, "read credentials from ~/.docker/config.json")
	flags.String("icon-file", "", "PNG icon attached to uploaded artifacts")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		a.pingCmd(),
		a.refCmd(),
		a.existsCmd(),
		a.uploadCmd(),
		a.downloadCmd(),
		a.deleteCmd(),
	)
	return root
}

// setup loads the configuration and creates the logger and client.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(a.stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	client, err := a.newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.client = client
	logger.Debug("configuration loaded", "registry", cfg.Registry.URL, "namespace", cfg.Registry.Namespace)
	return nil
}

// newLogger returns a slog logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	return slog.New(handler), nil
}
