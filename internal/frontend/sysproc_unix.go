package frontend

import "syscall"

// daemonSysProcAttr detaches the spawned daemon into its own session so it
// survives the frontend process exiting.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
