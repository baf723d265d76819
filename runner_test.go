package docconv

// Shared engine fakes for the core tests. fakeRunner stands in for the
// external engine without spawning processes: it honors the invocation
// contract (writes the artifact into --outdir unless told not to) and
// records enough to assert pool behavior.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeRunner implements Runner in-process.
type fakeRunner struct {
	mu       sync.Mutex
	active   int
	maxSeen  int
	started  []string // input paths in start order
	block    chan struct{}
	noOutput bool
	stderr   string
	// failPayload suppresses output for jobs whose input matches,
	// simulating an engine that exits clean but writes nothing.
	failPayload []byte
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) (string, error) {
	input := args[len(args)-1]

	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.started = append(f.started, input)
	block := f.block
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return f.stderr, ctx.Err()
		}
	}

	if f.noOutput {
		return f.stderr, nil
	}
	if f.failPayload != nil {
		payload, err := os.ReadFile(input)
		if err == nil && bytes.Equal(payload, f.failPayload) {
			return f.stderr, nil
		}
	}

	outdir := argAfter(args, "--outdir")
	format := argAfter(args, "--convert-to")
	out := filepath.Join(outdir, "input."+format)
	if err := os.WriteFile(out, []byte("%PDF-1.4 fake"), 0o600); err != nil {
		return f.stderr, err
	}
	return f.stderr, nil
}

func (f *fakeRunner) startedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeRunner) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

// argAfter returns the value following a flag in an argument vector.
func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// newTestScheduler wires a scheduler over a fresh temp root and the given
// fake runner.
func newTestScheduler(t *testing.T, workers int, fr *fakeRunner, timeout time.Duration) (*Scheduler, *WorkspaceManager) {
	t.Helper()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	invoker := NewInvoker("fake-engine", timeout, fr)
	s := NewScheduler(workers, manager, invoker, "pdf", nil)
	t.Cleanup(s.Close)
	return s, manager
}

// jobDirs lists workspace directories currently under the temp root.
func jobDirs(t *testing.T, root string) []string {
	t.Helper()

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var dirs []string
	for _, e := range entries {
		if len(e.Name()) >= len(workspacePrefix) && e.Name()[:len(workspacePrefix)] == workspacePrefix {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", d, msg)
}
