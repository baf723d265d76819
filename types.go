package docconv

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default limits used when no option overrides them.
const (
	// DefaultMaxFileSize caps uploads at 50MB.
	DefaultMaxFileSize = 50 << 20

	// DefaultTimeout bounds a single engine invocation.
	DefaultTimeout = 2 * time.Minute

	// DefaultEngineBinary is the LibreOffice launcher expected on PATH.
	DefaultEngineBinary = "soffice"

	// DefaultOutputFormat is the extension the engine is asked to produce.
	DefaultOutputFormat = "pdf"
)

// DefaultInputFormats lists the extensions admitted when no allow-list is
// configured. Matches the common office-suite surface.
var DefaultInputFormats = []string{
	"doc", "docx", "odt", "rtf", "txt",
	"xls", "xlsx", "ods", "csv",
	"ppt", "pptx", "odp",
}

// Job is a single admitted conversion request. Immutable after creation;
// owned by the scheduler until it reaches a terminal outcome.
type Job struct {
	ID          string
	Filename    string // original name, for logs only; never used as a path
	Ext         string // validated input extension, lowercase, no dot
	Payload     []byte
	SubmittedAt time.Time
}

// newJob creates a Job with a collision-free id.
func newJob(filename, ext string, payload []byte) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		Ext:         ext,
		Payload:     payload,
		SubmittedAt: time.Now(),
	}
}

// Outcome is a job's terminal result: either Result is set or Err is set,
// never both. Reported exactly once per submitted job.
type Outcome struct {
	JobID    string
	Result   *Result
	Err      error
	Duration time.Duration
}

// Result references a converted artifact on disk. The artifact lives inside
// the job's workspace; Close releases the workspace, so read the file first.
type Result struct {
	Path string
	Size int64

	once    sync.Once
	release func()
}

// NewResult builds a Result with an explicit release hook. Exposed for
// callers that stub the converter in tests.
func NewResult(path string, size int64, release func()) *Result {
	return &Result{Path: path, Size: size, release: release}
}

// Open returns a reader over the converted artifact.
func (r *Result) Open() (io.ReadCloser, error) {
	return os.Open(r.Path)
}

// Close releases the workspace holding the artifact. Safe to call more
// than once.
func (r *Result) Close() error {
	r.once.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
	return nil
}

// BatchItem is one file in a batch request.
type BatchItem struct {
	Filename string
	Payload  []byte
}
