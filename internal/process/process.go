// Package process launches a single background OS process and terminates
// it with bounded signal escalation.
package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

type Status string

const (
	Starting Status = "starting"
	Running  Status = "running"
	Stopped  Status = "stopped"
	Failed   Status = "failed"
)

// Spec describes a command to launch.
type Spec struct {
	Command   []string
	Directory string
	Env       map[string]string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Info is a point-in-time snapshot of a launched process.
type Info struct {
	PID       int
	Status    Status
	StartTime time.Time
	ExitErr   error
}

// Process is a launched background process. It is owned by a single
// supervised run and must not be shared across runs.
type Process struct {
	cmd       *exec.Cmd
	pid       int
	done      chan struct{}
	waitErr   error
	kill      func(pid int, sig syscall.Signal) error

	mu        sync.Mutex
	status    Status
	startTime time.Time
	signalled bool
}

// Launch starts the command detached in its own process group and begins
// reaping it in the background.
func Launch(spec Spec) (*Process, error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Directory
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.SysProcAttr = sysProcAttr()

	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	p := &Process{
		cmd:    cmd,
		done:   make(chan struct{}),
		kill:   signalGroup,
		status: Starting,
	}

	if err := cmd.Start(); err != nil {
		p.status = Failed
		return nil, err
	}

	p.pid = cmd.Process.Pid
	p.startTime = time.Now()
	p.status = Running

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

func (p *Process) PID() int { return p.pid }

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Exited reports whether the process has already exited on its own.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Process) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Process) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Info{
		PID:       p.pid,
		Status:    p.status,
		StartTime: p.startTime,
		ExitErr:   p.waitErr,
	}
}

func (p *Process) setStatus(s Status) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}

// Terminate sends sig to the process group and waits up to stopWait for the
// process to exit. On timeout it escalates to SIGKILL and waits up to
// killWait. A process that already exited is a no-op success, as is a
// repeated Terminate call.
func (p *Process) Terminate(sig syscall.Signal, stopWait, killWait time.Duration) error {
	p.mu.Lock()
	if p.signalled {
		p.mu.Unlock()
		return nil
	}
	p.signalled = true
	p.mu.Unlock()

	select {
	case <-p.done:
		p.setStatus(Stopped)
		return nil
	default:
	}

	if err := p.kill(p.pid, sig); err != nil {
		if isNoProcess(err) {
			p.setStatus(Stopped)
			return nil
		}
		p.setStatus(Failed)
		return fmt.Errorf("signal pid %d: %w", p.pid, err)
	}

	select {
	case <-p.done:
		p.setStatus(Stopped)
		return nil
	case <-time.After(stopWait):
	}

	if err := p.kill(p.pid, syscall.SIGKILL); err != nil && !isNoProcess(err) {
		p.setStatus(Failed)
		return fmt.Errorf("kill pid %d: %w", p.pid, err)
	}

	select {
	case <-p.done:
		p.setStatus(Stopped)
		return nil
	case <-time.After(killWait):
		p.setStatus(Failed)
		return fmt.Errorf("process %d still running %s after SIGKILL", p.pid, killWait)
	}
}
