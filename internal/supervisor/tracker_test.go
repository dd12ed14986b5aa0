package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kolkov/svrun/internal/process"
)

func TestTrackerNilSafe(t *testing.T) {
	var tr *Tracker
	tr.setService(process.Info{PID: 1})
	tr.setClient(ClientInfo{PID: 2})

	service, client := tr.Snapshot()
	assert.Zero(t, service)
	assert.Zero(t, client)
}

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker()
	started := time.Now()

	tr.setService(process.Info{PID: 10, Status: process.Running, StartTime: started})
	tr.setClient(ClientInfo{PID: 20, Status: process.Running, StartTime: started})

	service, client := tr.Snapshot()
	assert.Equal(t, 10, service.PID)
	assert.Equal(t, process.Running, service.Status)
	assert.Equal(t, 20, client.PID)
}

func TestTrackerKeepsClientStartTime(t *testing.T) {
	tr := NewTracker()
	started := time.Now()

	tr.setClient(ClientInfo{PID: 20, Status: process.Running, StartTime: started})
	// The final update carries no start time; the original must survive.
	tr.setClient(ClientInfo{PID: 20, Status: process.Stopped, ExitStatus: 7})

	_, client := tr.Snapshot()
	assert.Equal(t, started, client.StartTime)
	assert.Equal(t, process.Stopped, client.Status)
	assert.Equal(t, 7, client.ExitStatus)
}
