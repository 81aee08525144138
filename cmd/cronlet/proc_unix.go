//go:build unix

package main

import "syscall"

// detachedProcAttr starts cronletd in a new session so it survives
// this CLI invocation's controlling terminal going away, the Go
// equivalent of spec §4.G's platform-specific detach step.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
