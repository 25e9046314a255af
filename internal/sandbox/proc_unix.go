//go:build !windows

package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func defaultShell() string { return "/bin/sh" }

// shellCommand starts the command in its own process group so cancellation
// kills everything it spawned.
func shellCommand(ctx context.Context, shell, command string) *exec.Cmd {
	c := exec.CommandContext(ctx, shell, "-c", command)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		err := unix.Kill(-c.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return c
}
