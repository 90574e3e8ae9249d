package registry

// DownloadOption configures a Download operation.
type DownloadOption func(*downloadConfig)

type downloadConfig struct {
	progress ProgressFunc
}

// WithDownloadProgress sets a callback to receive progress updates during download.
func WithDownloadProgress(fn ProgressFunc) DownloadOption {
	return func(cfg *downloadConfig) {
		cfg.progress = fn
	}
}
