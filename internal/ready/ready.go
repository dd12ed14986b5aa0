// Package ready decides when a freshly launched service is safe to use.
package ready

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Probe is a strategy that checks whether the service is ready.
// Implementations must be safe to call repeatedly.
type Probe interface {
	// Ready performs a single readiness attempt.
	Ready(ctx context.Context) (bool, error)
	// Describe returns a human-readable description of the probe.
	Describe() string
}

// Await polls probe until it reports ready, failing when the timeout
// elapses or ctx is cancelled first.
func Await(ctx context.Context, probe Probe, timeout, interval time.Duration) error {
	if probe == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := probe.Ready(ctx)
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%s: %w (last attempt: %v)", probe.Describe(), ctx.Err(), lastErr)
			}
			return fmt.Errorf("%s: %w", probe.Describe(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Delay is a fixed settle period after launch, for services with no
// probeable surface.
type Delay struct {
	wait  time.Duration
	until time.Time
}

func NewDelay(wait time.Duration) *Delay {
	return &Delay{wait: wait, until: time.Now().Add(wait)}
}

func (d *Delay) Ready(context.Context) (bool, error) {
	return !time.Now().Before(d.until), nil
}

func (d *Delay) Describe() string {
	return fmt.Sprintf("wait %s", d.wait)
}

// TCP reports ready once the address accepts a connection.
type TCP struct {
	Addr string
}

func (t *TCP) Ready(ctx context.Context) (bool, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.Addr)
	if err != nil {
		return false, err
	}
	conn.Close()
	return true, nil
}

func (t *TCP) Describe() string {
	return fmt.Sprintf("tcp %s", t.Addr)
}

// GRPC reports ready once the target answers the standard gRPC
// health-checking protocol with SERVING.
type GRPC struct {
	Target  string
	Service string
}

func (g *GRPC) Ready(ctx context.Context) (bool, error) {
	conn, err := grpc.NewClient(g.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return false, err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: g.Service})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (g *GRPC) Describe() string {
	return fmt.Sprintf("grpc %s", g.Target)
}

// Command reports ready once the check command exits zero.
type Command struct {
	Argv []string
}

func (c *Command) Ready(ctx context.Context) (bool, error) {
	if len(c.Argv) == 0 {
		return false, fmt.Errorf("empty check command")
	}
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	if err := cmd.Run(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Command) Describe() string {
	return fmt.Sprintf("command %q", strings.Join(c.Argv, " "))
}
