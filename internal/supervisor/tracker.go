package supervisor

import (
	"sync"
	"time"

	"github.com/kolkov/svrun/internal/process"
)

// ClientInfo is a point-in-time snapshot of the foreground task.
type ClientInfo struct {
	PID        int
	Status     process.Status
	StartTime  time.Time
	ExitStatus int
}

// Tracker publishes live run state for the TUI monitor. A nil Tracker is
// safe and records nothing.
type Tracker struct {
	mu      sync.Mutex
	service process.Info
	client  ClientInfo
}

func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) setService(info process.Info) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.service = info
	t.mu.Unlock()
}

func (t *Tracker) setClient(info ClientInfo) {
	if t == nil {
		return
	}
	t.mu.Lock()
	if info.StartTime.IsZero() {
		info.StartTime = t.client.StartTime
	}
	t.client = info
	t.mu.Unlock()
}

// Snapshot returns the current service and client state.
func (t *Tracker) Snapshot() (process.Info, ClientInfo) {
	if t == nil {
		return process.Info{}, ClientInfo{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.service, t.client
}
