package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCommand marks an empty or malformed command sequence.
var ErrInvalidCommand = errors.New("invalid command")

// LaunchError means the background service could not be started. Nothing
// was spawned, so no cleanup is owed.
type LaunchError struct {
	Command []string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// CleanupError means terminating or reaping the service failed. It is
// reported alongside the client result, never instead of it.
type CleanupError struct {
	PID int
	Err error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup of pid %d: %v", e.PID, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Outcome aggregates the result of one supervised run.
type Outcome struct {
	ClientStatus int
	ClientErr    error

	CleanupOK  bool
	CleanupErr *CleanupError

	ServicePID int
	// ServiceExited is set when the service was already gone by the time
	// cleanup ran.
	ServiceExited bool
}

// ClientOK reports whether the foreground task succeeded.
func (o *Outcome) ClientOK() bool {
	return o.ClientErr == nil && o.ClientStatus == 0
}

// CLI exit codes.
const (
	ExitOK             = 0
	ExitClientFault    = 1
	ExitLaunchError    = 2
	ExitCleanupError   = 3
	ExitInvalidCommand = 4
)

// ExitCodeFor maps a run result onto the CLI exit codes. A client fault
// outranks a cleanup failure; both are still visible in the Outcome.
func ExitCodeFor(out *Outcome, err error) int {
	switch {
	case errors.Is(err, ErrInvalidCommand):
		return ExitInvalidCommand
	case err != nil:
		return ExitLaunchError
	case !out.ClientOK():
		return ExitClientFault
	case !out.CleanupOK:
		return ExitCleanupError
	default:
		return ExitOK
	}
}
