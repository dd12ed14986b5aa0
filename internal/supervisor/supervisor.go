// Package supervisor runs the "background service + dependent client"
// pattern: launch the service, wait for readiness, run the client, and
// terminate the service on every exit path.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kolkov/svrun/internal/process"
	"github.com/kolkov/svrun/internal/ready"
)

const (
	DefaultStopWait = 5 * time.Second
	DefaultKillWait = 2 * time.Second
)

// Handle is the supervisor's view of the launched service process.
type Handle interface {
	PID() int
	Done() <-chan struct{}
	Exited() bool
	Info() process.Info
	Terminate(sig syscall.Signal, stopWait, killWait time.Duration) error
}

// Launcher starts the background service. Tests swap this out.
type Launcher func(spec process.Spec) (Handle, error)

func defaultLauncher(spec process.Spec) (Handle, error) {
	p, err := process.Launch(spec)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunSpec describes a single supervised run.
type RunSpec struct {
	Service process.Spec
	Client  process.Spec

	StopSignal syscall.Signal
	StopWait   time.Duration
	KillWait   time.Duration

	// Probes run in order between service launch and client start.
	Probes        []ready.Probe
	ProbeTimeout  time.Duration
	ProbeInterval time.Duration
}

type Supervisor struct {
	logger  *slog.Logger
	launch  Launcher
	tracker *Tracker
}

type Option func(*Supervisor)

func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) { s.launch = l }
}

// WithTracker publishes live run state, used by the TUI monitor.
func WithTracker(t *Tracker) Option {
	return func(s *Supervisor) { s.tracker = t }
}

func New(logger *slog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger: logger,
		launch: defaultLauncher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one supervised run. Client faults are reported through the
// Outcome, not the error; a non-nil error means the run never reached the
// client (bad input, launch failure, readiness failure). Once the service
// has launched, the returned Outcome always carries the cleanup result.
func (s *Supervisor) Run(ctx context.Context, spec RunSpec) (*Outcome, error) {
	if len(spec.Service.Command) == 0 || spec.Service.Command[0] == "" {
		return nil, fmt.Errorf("%w: service command is empty", ErrInvalidCommand)
	}
	if len(spec.Client.Command) == 0 || spec.Client.Command[0] == "" {
		return nil, fmt.Errorf("%w: client command is empty", ErrInvalidCommand)
	}
	if spec.StopSignal == 0 {
		spec.StopSignal = syscall.SIGTERM
	}
	if spec.StopWait <= 0 {
		spec.StopWait = DefaultStopWait
	}
	if spec.KillWait <= 0 {
		spec.KillWait = DefaultKillWait
	}

	h, err := s.launch(spec.Service)
	if err != nil {
		return nil, &LaunchError{Command: spec.Service.Command, Err: err}
	}
	s.logger.Info("service started", "pid", h.PID(), "command", spec.Service.Command)
	s.tracker.setService(h.Info())

	out := &Outcome{ServicePID: h.PID()}

	// From here on cleanup is owed no matter how the rest of the run ends.
	defer func() {
		out.ServiceExited = h.Exited()
		started := time.Now()
		if cerr := h.Terminate(spec.StopSignal, spec.StopWait, spec.KillWait); cerr != nil {
			out.CleanupErr = &CleanupError{PID: h.PID(), Err: cerr}
			s.logger.Error("service cleanup failed", "pid", h.PID(), "error", cerr)
		} else {
			out.CleanupOK = true
			s.logger.Info("service stopped", "pid", h.PID(), "took", time.Since(started).Round(time.Millisecond))
		}
		s.tracker.setService(h.Info())
	}()

	for _, probe := range spec.Probes {
		s.logger.Debug("awaiting readiness", "probe", probe.Describe())
		if perr := ready.Await(ctx, probe, spec.ProbeTimeout, spec.ProbeInterval); perr != nil {
			return out, fmt.Errorf("service readiness: %w", perr)
		}
	}

	out.ClientStatus, out.ClientErr = s.runClient(ctx, spec.Client)
	if out.ClientErr != nil {
		s.logger.Error("client failed", "error", out.ClientErr)
	} else {
		s.logger.Info("client finished", "status", out.ClientStatus)
	}
	return out, nil
}

// runClient executes the foreground task and extracts its exit status.
func (s *Supervisor) runClient(ctx context.Context, spec process.Spec) (int, error) {
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Directory
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		s.tracker.setClient(ClientInfo{Status: process.Failed})
		return -1, fmt.Errorf("start client: %w", err)
	}
	s.logger.Info("client started", "pid", cmd.Process.Pid, "command", spec.Command)
	s.tracker.setClient(ClientInfo{
		PID:       cmd.Process.Pid,
		Status:    process.Running,
		StartTime: time.Now(),
	})

	err := cmd.Wait()
	status, werr := exitStatus(err)
	finished := process.Stopped
	if status != 0 || werr != nil {
		finished = process.Failed
	}
	s.tracker.setClient(ClientInfo{
		PID:        cmd.Process.Pid,
		Status:     finished,
		ExitStatus: status,
	})
	return status, werr
}

// exitStatus maps a Wait error onto a shell-style exit status. A client
// killed by a signal reports 128+signal.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, err
	}
	if status := exitErr.ExitCode(); status >= 0 {
		return status, nil
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), fmt.Errorf("client killed by %v", ws.Signal())
	}
	return -1, err
}
