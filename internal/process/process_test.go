//go:build !windows

package process

import (
	"os/exec"
	"testing"
)

func TestSetGroup(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	SetGroup(cmd)

	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Error("SetGroup did not request a new process group")
	}
}

func TestKillGroup_NonexistentPID(t *testing.T) {
	t.Parallel()

	// Best-effort: must not panic on a pid that no longer exists.
	KillGroup(1 << 22)
}
