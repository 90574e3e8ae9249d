package registry

// UploadOption configures an Upload operation.
type UploadOption func(*uploadConfig)

type uploadConfig struct {
	annotations map[string]string
	progress    ProgressFunc
}

// WithAnnotations sets additional annotations on the manifest.
//
// The full name annotation is always set from the fullName argument and
// cannot be overridden. org.opencontainers.image.created is set
// automatically unless provided here.
func WithAnnotations(annotations map[string]string) UploadOption {
	return func(cfg *uploadConfig) {
		if cfg.annotations == nil {
			cfg.annotations = make(map[string]string)
		}
		for k, v := range annotations {
			cfg.annotations[k] = v
		}
	}
}

// WithUploadProgress sets a callback to receive progress updates during upload.
func WithUploadProgress(fn ProgressFunc) UploadOption {
	return func(cfg *uploadConfig) {
		cfg.progress = fn
	}
}
