package docconv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestWorkspaceManager_Acquire(t *testing.T) {
	t.Parallel()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	ws, err := manager.Acquire("job-1", "docx", []byte("payload"))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(ws.Dir), workspacePrefix) {
		t.Errorf("workspace dir %q missing prefix %q", ws.Dir, workspacePrefix)
	}
	if filepath.Base(ws.InputPath) != "input.docx" {
		t.Errorf("input written as %q, want fixed name input.docx", filepath.Base(ws.InputPath))
	}

	got, err := os.ReadFile(ws.InputPath)
	if err != nil {
		t.Fatalf("reading input: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("input content = %q, want %q", got, "payload")
	}
}

func TestWorkspaceManager_AcquireUniquePerJob(t *testing.T) {
	t.Parallel()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	a, err := manager.Acquire("job-a", "docx", nil)
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	b, err := manager.Acquire("job-b", "docx", nil)
	if err != nil {
		t.Fatalf("Acquire b: %v", err)
	}
	if a.Dir == b.Dir {
		t.Errorf("two live jobs share workspace %q", a.Dir)
	}

	// Same id twice must fail rather than silently share state.
	if _, err := manager.Acquire("job-a", "docx", nil); !errors.Is(err, ErrWorkspaceAlloc) {
		t.Errorf("duplicate id error = %v, want ErrWorkspaceAlloc", err)
	}
}

func TestWorkspaceManager_AcquireConcurrent(t *testing.T) {
	t.Parallel()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	const n = 16
	dirs := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ws, err := manager.Acquire(newJob("f.docx", "docx", nil).ID, "docx", nil)
			if err != nil {
				t.Errorf("concurrent Acquire: %v", err)
				return
			}
			dirs[i] = ws.Dir
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, d := range dirs {
		if seen[d] {
			t.Fatalf("duplicate workspace dir under concurrency: %q", d)
		}
		seen[d] = true
	}
}

func TestWorkspaceManager_ReleaseRemovesEverything(t *testing.T) {
	t.Parallel()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	ws, err := manager.Acquire("job-1", "docx", []byte("x"))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Engine-produced side files go too.
	if err := os.WriteFile(filepath.Join(ws.Dir, "input.pdf"), []byte("out"), 0o600); err != nil {
		t.Fatalf("writing side file: %v", err)
	}

	manager.Release(ws)
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace %q still exists after Release", ws.Dir)
	}

	// Idempotent.
	manager.Release(ws)
	manager.Release(nil)
}

func TestWorkspaceManager_AcquireRejectsBadExtension(t *testing.T) {
	t.Parallel()

	manager, err := NewWorkspaceManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	for _, ext := range []string{"", "../evil", "a\\b", "x\x00y"} {
		if _, err := manager.Acquire("job-1", ext, nil); !errors.Is(err, ErrWorkspaceAlloc) {
			t.Errorf("Acquire with ext %q error = %v, want ErrWorkspaceAlloc", ext, err)
		}
	}
	if got := jobDirs(t, manager.Root()); len(got) != 0 {
		t.Errorf("rejected acquisitions left workspaces behind: %v", got)
	}
}

func TestWorkspaceManager_AcquireFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager, err := NewWorkspaceManager(root)
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	// Occupying the workspace path with a file forces Mkdir to fail.
	blocked := filepath.Join(root, workspacePrefix+"job-1")
	if err := os.WriteFile(blocked, nil, 0o600); err != nil {
		t.Fatalf("planting blocker: %v", err)
	}

	if _, err := manager.Acquire("job-1", "docx", nil); !errors.Is(err, ErrWorkspaceAlloc) {
		t.Errorf("Acquire error = %v, want ErrWorkspaceAlloc", err)
	}
}

func TestWorkspaceManager_Sweep(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager, err := NewWorkspaceManager(root)
	if err != nil {
		t.Fatalf("NewWorkspaceManager: %v", err)
	}

	// Orphans from a crashed previous run plus an unrelated file.
	for _, d := range []string{workspacePrefix + "stale", profilePrefix + "0"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o750); err != nil {
			t.Fatalf("creating orphan: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "keepme.txt"), nil, 0o600); err != nil {
		t.Fatalf("creating bystander: %v", err)
	}

	removed, err := manager.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Errorf("Sweep removed %d entries, want 2", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "keepme.txt")); err != nil {
		t.Errorf("Sweep removed an unrelated file: %v", err)
	}
}

func TestWorkspace_OutputPath(t *testing.T) {
	t.Parallel()

	ws := &Workspace{Dir: "/tmp/docconv-job-x", InputPath: "/tmp/docconv-job-x/input.docx"}
	want := filepath.Join("/tmp/docconv-job-x", "input.pdf")
	if got := ws.OutputPath("pdf"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}
