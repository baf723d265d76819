package docconv

import "errors"

// Sentinel errors for conversion outcomes. Callers classify failures with
// errors.Is; the detail is carried in the wrapping message.
var (
	// Admission errors. No workspace exists and no worker slot was
	// consumed when one of these is returned.
	ErrMissingFilename   = errors.New("no filename provided")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")

	// ErrWorkspaceAlloc means scratch space could not be created
	// (disk full, permissions). A server-side error, not a client one.
	ErrWorkspaceAlloc = errors.New("workspace allocation failed")

	// ErrConversionFailed covers a non-zero engine exit and the case
	// where the engine exits zero but writes no usable artifact.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrTimeout means the engine did not finish within the configured
	// wall-clock limit and was killed along with its process group.
	ErrTimeout = errors.New("conversion timed out")

	// ErrClosed is returned for jobs submitted after Close.
	ErrClosed = errors.New("converter is closed")
)
