package docconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-docconv/internal/process"
)

// Runner abstracts command execution to enable testing without real engine
// subprocesses. The context carries the invocation deadline; Run must kill
// the command's whole process tree when the context fires.
type Runner interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) (stderr string, err error)
}

// ExecRunner implements Runner using os/exec with process-group isolation.
type ExecRunner struct{}

// Run starts the command in its own process group and waits for it to exit
// or for the context to fire, whichever comes first. On context expiry the
// entire group is killed so no engine helper processes are leaked.
func (ExecRunner) Run(ctx context.Context, name string, args []string, extraEnv []string) (string, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- argv is built internally, never from a shell string
	cmd.Env = append(os.Environ(), extraEnv...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	process.SetGroup(cmd)

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting engine: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return stderr.String(), err
	case <-ctx.Done():
		process.KillGroup(cmd.Process.Pid)
		// Fallback in case the group kill raced with a setpgid failure.
		_ = cmd.Process.Kill()
		<-done
		return stderr.String(), ctx.Err()
	}
}

// Invoker runs the external rendering engine against a workspace and
// classifies the result. The engine is opaque: readable input file in,
// converted artifact out, nothing else assumed.
type Invoker struct {
	binary  string
	timeout time.Duration
	runner  Runner
}

// NewInvoker builds an Invoker for the given engine binary and per-job
// wall-clock timeout.
func NewInvoker(binary string, timeout time.Duration, runner Runner) *Invoker {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Invoker{binary: binary, timeout: timeout, runner: runner}
}

// Invoke converts the workspace's input file into the requested format,
// writing the artifact into the workspace. profileDir isolates the engine's
// own state per worker slot; concurrent invocations sharing a profile
// corrupt each other. Success requires both a zero exit and a non-empty
// artifact at the expected path.
func (inv *Invoker) Invoke(ctx context.Context, ws *Workspace, format, profileDir string) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	args := engineArgs(ws, format, profileDir)
	stderr, err := inv.runner.Run(ctx, inv.binary, args, engineEnv())
	if err != nil {
		return "", 0, classifyRunError(err, stderr)
	}

	outPath := ws.OutputPath(format)
	info, statErr := os.Stat(outPath)
	if statErr != nil || info.Size() == 0 {
		// The engine can exit zero while silently writing nothing.
		return "", 0, fmt.Errorf("%w: engine exited cleanly but produced no output%s",
			ErrConversionFailed, stderrDetail(stderr))
	}

	return outPath, info.Size(), nil
}

// engineArgs builds the discrete argument vector for a headless conversion.
// Arguments are never passed through a shell. The UserInstallation override
// gives each invocation an isolated profile, since the engine's lock files
// and user state are not safe for concurrent headless use.
func engineArgs(ws *Workspace, format, profileDir string) []string {
	return []string{
		"--headless",
		"--invisible",
		"--nodefault",
		"--nolockcheck",
		"--nologo",
		"--norestore",
		"-env:UserInstallation=file://" + profileDir,
		"--convert-to", format,
		"--outdir", ws.Dir,
		ws.InputPath,
	}
}

// engineEnv returns environment overrides for display-less operation.
func engineEnv() []string {
	return []string{
		"DISPLAY=",
		"SAL_USE_VCLPLUGIN=svp",
	}
}

// classifyRunError maps a runner error to the failure taxonomy.
func classifyRunError(err error, stderr string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", ErrTimeout, stderrDetail(stderr))
	case errors.Is(err, context.Canceled):
		return err
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: engine exited with %d%s",
				ErrConversionFailed, exitErr.ExitCode(), stderrDetail(stderr))
		}
		// Spawn failure, I/O error: unanticipated, left unclassified so it
		// surfaces as a server-side error.
		return fmt.Errorf("invoking engine: %w", err)
	}
}

// stderrDetail formats the engine's diagnostic stream for failure messages.
// Trimmed to the first line; engines tend to dump multi-page noise.
func stderrDetail(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return ": " + s
}
