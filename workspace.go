package docconv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace name prefixes under the temp root. Job workspaces are swept at
// startup; profile directories are recreated per scheduler run.
const (
	workspacePrefix = "docconv-job-"
	profilePrefix   = "docconv-profile-"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o600 // rw-------: input payloads are private
)

// inputBasename is the fixed name the payload is written under. Using a
// fixed name instead of the client-supplied filename rules out path
// traversal and collisions between jobs.
const inputBasename = "input"

// Sentinel errors for workspace operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// Workspace is a uniquely named scratch directory bound to one job. It
// holds exactly one input artifact and, on success, one output artifact.
type Workspace struct {
	JobID     string
	Dir       string
	InputPath string
}

// OutputPath is where the engine writes the converted artifact: the input
// basename with the requested extension, inside the workspace directory.
func (w *Workspace) OutputPath(format string) string {
	return filepath.Join(w.Dir, inputBasename+"."+format)
}

// WorkspaceManager allocates and releases per-job scratch directories under
// a single temp root shared by all worker slots.
type WorkspaceManager struct {
	root string
}

// NewWorkspaceManager creates the temp root if needed and returns a manager
// rooted there.
func NewWorkspaceManager(root string) (*WorkspaceManager, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating temp root: %v", ErrWorkspaceAlloc, err)
	}
	return &WorkspaceManager{root: root}, nil
}

// Root returns the temp root directory.
func (m *WorkspaceManager) Root() string {
	return m.root
}

// Acquire creates a fresh workspace for the job and writes the payload into
// it under the fixed input filename. The directory name derives from the
// job id, so concurrent acquisitions never collide. Failures are reported
// as ErrWorkspaceAlloc and leave nothing behind.
func (m *WorkspaceManager) Acquire(jobID, ext string, payload []byte) (*Workspace, error) {
	if err := validateExtension(ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspaceAlloc, err)
	}

	dir := filepath.Join(m.root, workspacePrefix+jobID)
	if err := os.Mkdir(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkspaceAlloc, err)
	}

	inputPath := filepath.Join(dir, inputBasename+"."+ext)
	if err := os.WriteFile(inputPath, payload, filePermissions); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: writing input: %v", ErrWorkspaceAlloc, err)
	}

	return &Workspace{JobID: jobID, Dir: dir, InputPath: inputPath}, nil
}

// Release removes the workspace and everything in it, including any side
// files the engine produced. Safe to call on an already-released workspace.
func (m *WorkspaceManager) Release(ws *Workspace) {
	if ws == nil {
		return
	}
	// Best-effort; a failed removal is caught by the next startup sweep.
	_ = os.RemoveAll(ws.Dir)
}

// ProfileDir creates (or reuses) an isolated engine profile directory for a
// worker slot. The engine keeps lock files and user state per profile, so
// each concurrent invocation needs its own.
func (m *WorkspaceManager) ProfileDir(slot int) (string, error) {
	dir := filepath.Join(m.root, fmt.Sprintf("%s%d", profilePrefix, slot))
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("%w: creating profile dir: %v", ErrWorkspaceAlloc, err)
	}
	return dir, nil
}

// Sweep removes orphaned workspace and profile directories left behind by
// a previous process (crash recovery). Returns how many entries were
// removed. Call before the scheduler starts, never while jobs run.
func (m *WorkspaceManager) Sweep() (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("sweeping temp root: %w", err)
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, workspacePrefix) && !strings.HasPrefix(name, profilePrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// validateExtension checks that the extension is safe for use in file names.
func validateExtension(ext string) error {
	if ext == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(ext, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}
