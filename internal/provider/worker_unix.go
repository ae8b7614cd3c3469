//go:build !windows

package provider

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setWorkerProcAttr puts the worker in its own process group so the whole
// group can be signaled, children included.
func setWorkerProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func interruptWorker(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGINT)
}

func killWorker(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
