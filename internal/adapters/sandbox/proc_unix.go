//go:build !windows

package sandbox

import (
	"os"
	"os/exec"
	"syscall"
)

// isolate starts the command in its own process group so that cancellation
// kills every descendant.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}

// container is a no-op here; the process group already covers every
// descendant.
type container struct{}

func newContainer() *container {
	return &container{}
}

func (*container) add(*os.Process) error { return nil }

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
