//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess puts pokerlogd in its own process group so it
// survives the terminal that started it
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
