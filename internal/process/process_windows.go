//go:build windows

// Package process provides process-group control for engine subprocesses.
package process

import (
	"os/exec"
	"strconv"
)

// SetGroup is a no-op on Windows; tree termination goes through taskkill.
func SetGroup(cmd *exec.Cmd) {}

// KillGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillGroup(pid int) {
	// Best-effort cleanup; error ignored as Process.Kill provides fallback
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
