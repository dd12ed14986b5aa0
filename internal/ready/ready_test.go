//go:build unix

package ready

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitNilProbe(t *testing.T) {
	require.NoError(t, Await(context.Background(), nil, time.Second, time.Millisecond))
}

func TestDelay(t *testing.T) {
	probe := NewDelay(150 * time.Millisecond)

	ok, err := probe.Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "delay must not report ready immediately")

	start := time.Now()
	require.NoError(t, Await(context.Background(), probe, 2*time.Second, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestTCPReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	probe := &TCP{Addr: ln.Addr().String()}
	require.NoError(t, Await(context.Background(), probe, 2*time.Second, 20*time.Millisecond))
}

func TestTCPNotListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	probe := &TCP{Addr: addr}
	err = Await(context.Background(), probe, 300*time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tcp "+addr)
}

func TestTCPBecomesReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	// Start listening only after a short delay.
	ready := make(chan net.Listener, 1)
	go func() {
		time.Sleep(200 * time.Millisecond)
		if late, lerr := net.Listen("tcp", addr); lerr == nil {
			ready <- late
		}
	}()
	t.Cleanup(func() {
		select {
		case late := <-ready:
			late.Close()
		default:
		}
	})

	probe := &TCP{Addr: addr}
	require.NoError(t, Await(context.Background(), probe, 5*time.Second, 50*time.Millisecond))
}

func TestCommandProbe(t *testing.T) {
	ok := &Command{Argv: []string{"true"}}
	require.NoError(t, Await(context.Background(), ok, time.Second, 20*time.Millisecond))

	failing := &Command{Argv: []string{"false"}}
	err := Await(context.Background(), failing, 300*time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)

	empty := &Command{}
	err = Await(context.Background(), empty, 200*time.Millisecond, 50*time.Millisecond)
	require.Error(t, err)
}

func TestAwaitRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := &Command{Argv: []string{"false"}}
	err := Await(ctx, probe, 10*time.Second, 50*time.Millisecond)
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "wait 500ms", NewDelay(500*time.Millisecond).Describe())
	assert.Equal(t, "tcp localhost:4545", (&TCP{Addr: "localhost:4545"}).Describe())
	assert.Equal(t, "grpc localhost:50051", (&GRPC{Target: "localhost:50051"}).Describe())
	assert.Equal(t, `command "curl -f http://x"`, (&Command{Argv: []string{"curl", "-f", "http://x"}}).Describe())
}
