//go:build unix

package process

import (
	"errors"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the whole process group so children spawned by the
// service are torn down with it.
func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}

func isNoProcess(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}
