//go:build windows

package sandbox

import (
	"context"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func defaultShell() string { return "cmd" }

// shellCommand runs the command through cmd /C in a new process group.
// Cancellation kills the shell process; WaitDelay covers stragglers.
func shellCommand(ctx context.Context, shell, command string) *exec.Cmd {
	c := exec.CommandContext(ctx, shell, "/C", command)
	c.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
	return c
}
