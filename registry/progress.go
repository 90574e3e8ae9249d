package registry

import "io"

// ProgressEvent represents a progress update during upload or download.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// BytesDone is the number of bytes transferred in the current stage.
	BytesDone int64

	// BytesTotal is the total bytes for the current stage.
	BytesTotal int64
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for upload and download.
const (
	// StagePushingContent indicates the content blob is being uploaded.
	StagePushingContent ProgressStage = iota

	// StagePushingIcon indicates the icon blob is being uploaded.
	StagePushingIcon

	// StagePushingManifest indicates the manifest is being uploaded.
	StagePushingManifest

	// StageFetchingManifest indicates the manifest is being fetched.
	StageFetchingManifest

	// StageFetchingContent indicates the content blob is being downloaded.
	StageFetchingContent
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StagePushingContent:
		return "pushing content"
	case StagePushingIcon:
		return "pushing icon"
	case StagePushingManifest:
		return "pushing manifest"
	case StageFetchingManifest:
		return "fetching manifest"
	case StageFetchingContent:
		return "fetching content"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
type ProgressFunc func(ProgressEvent)

// report sends a progress event if fn is set.
func (fn ProgressFunc) report(stage ProgressStage, done, total int64) {
	if fn == nil {
		return
	}
	fn(ProgressEvent{Stage: stage, BytesDone: done, BytesTotal: total})
}

// progressReader reports the bytes read through it.
type progressReader struct {
	r     io.Reader
	fn    ProgressFunc
	stage ProgressStage
	done  int64
	total int64
}

// withProgress wraps r so reads are reported to fn. A nil fn returns r.
func withProgress(r io.Reader, fn ProgressFunc, stage ProgressStage, total int64) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, fn: fn, stage: stage, total: total}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.fn.report(p.stage, p.done, p.total)
	}
	return n, err
}
