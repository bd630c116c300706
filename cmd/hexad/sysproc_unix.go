package main

import "syscall"

// daemonSysProcAttr detaches the backgrounded --daemon child into its own
// session so it survives this process exiting, completing the
// double-fork-equivalent backgrounding spec.md §6 asks for.
func daemonSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
