//go:build windows

package sandbox

import (
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"go.trai.ch/zerr"
)

// isolate starts the command in a new process group; cancellation uses
// taskkill to remove the whole tree.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		//nolint:gosec // pid comes from the started process
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}

// container is a kill-on-close job object shared by every process a Runner
// starts. The handle is released by the OS when this process dies, which
// terminates all tools still assigned to it, grandchildren included.
type container struct {
	once sync.Once
	job  windows.Handle
	err  error
}

func newContainer() *container {
	return &container{}
}

func (c *container) init() {
	c.job, c.err = windows.CreateJobObject(nil, nil)
	if c.err != nil {
		return
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		c.job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		_ = windows.CloseHandle(c.job)
		c.job = 0
		c.err = err
	}
}

// add assigns p to the job object. Children p spawns afterwards inherit it.
func (c *container) add(p *os.Process) error {
	c.once.Do(c.init)
	if c.err != nil {
		return zerr.Wrap(c.err, "failed to create job object")
	}

	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(p.Pid)) //nolint:gosec // pid fits
	if err != nil {
		return zerr.Wrap(err, "failed to open process")
	}
	defer func() { _ = windows.CloseHandle(h) }()

	if err := windows.AssignProcessToJobObject(c.job, h); err != nil {
		return zerr.Wrap(err, "failed to assign process to job object")
	}
	return nil
}

// close releases the job handle, killing every process still assigned.
func (c *container) close() error {
	if c.job == 0 {
		return nil
	}
	err := windows.CloseHandle(c.job)
	c.job = 0
	return err
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if d.IsDir() {
		return os.ErrPermission
	}
	return nil
}
