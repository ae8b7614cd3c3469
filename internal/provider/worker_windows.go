//go:build windows

package provider

import "os/exec"

func setWorkerProcAttr(*exec.Cmd) {}

func interruptWorker(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

func killWorker(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
