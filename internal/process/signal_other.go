//go:build !unix

package process

import (
	"fmt"
	"runtime"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr { return nil }

func signalGroup(pid int, sig syscall.Signal) error {
	_ = sig
	return fmt.Errorf("signalling pid %d is not supported on %s", pid, runtime.GOOS)
}

func isNoProcess(err error) bool { return false }
