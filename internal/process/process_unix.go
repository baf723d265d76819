//go:build !windows

// Package process provides process-group control for engine subprocesses.
package process

import (
	"os/exec"
	"syscall"
)

// SetGroup places the command in its own process group so the whole tree
// (the engine may fork helpers) can be killed together.
func SetGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillGroup(pid int) {
	// Best-effort cleanup; error ignored as Process.Kill provides fallback
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
