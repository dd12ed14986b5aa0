// Command svrun runs a foreground command against a supervised background
// service, guaranteeing the service is terminated when the run ends:
//
//	svrun [flags] <service-command...> -- <client-command...>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kolkov/svrun/internal/config"
	logpkg "github.com/kolkov/svrun/internal/log"
	"github.com/kolkov/svrun/internal/process"
	"github.com/kolkov/svrun/internal/ready"
	"github.com/kolkov/svrun/internal/supervisor"
	"github.com/kolkov/svrun/internal/tui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := &options{}
	root := newRootCmd(opts)
	root.SetArgs(args)

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	if !opts.ran {
		// Flag parse failure or a help/usage path; the run never started.
		if err != nil {
			return supervisor.ExitInvalidCommand
		}
		return supervisor.ExitOK
	}
	return supervisor.ExitCodeFor(opts.outcome, err)
}

type options struct {
	configPath string
	stopSignal string
	stopWait   time.Duration
	killWait   time.Duration

	readyWait    time.Duration
	readyTCP     string
	readyGRPC    string
	readyCmd     []string
	readyTimeout time.Duration

	tuiMode bool
	quiet   bool

	logLevel  string
	logFormat string

	ran     bool
	outcome *supervisor.Outcome
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "svrun [flags] <service-command...> -- <client-command...>",
		Short: "Run a command against a supervised background service",
		Long: `svrun starts the service command in the background, optionally waits
for a readiness condition, runs the client command in the foreground, and
terminates the service afterwards no matter how the client ended.

Exit codes: 0 success, 1 client fault, 2 launch error, 3 cleanup error,
4 invalid input.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ran = true
			return opts.run(cmd, args)
		},
	}

	fl := cmd.Flags()
	// Service flags after the service command must pass through untouched.
	fl.SetInterspersed(false)

	fl.StringVarP(&opts.configPath, "config", "c", "", "path to configuration file")
	fl.StringVar(&opts.stopSignal, "stop-signal", "", "signal used to stop the service (SIGTERM, SIGINT, SIGKILL)")
	fl.DurationVar(&opts.stopWait, "stop-wait", 0, "wait for the service to exit before escalating to SIGKILL")
	fl.DurationVar(&opts.killWait, "kill-wait", 0, "wait after SIGKILL before reporting a cleanup error")
	fl.DurationVar(&opts.readyWait, "ready-wait", 0, "settle delay before running the client")
	fl.StringVar(&opts.readyTCP, "ready-tcp", "", "TCP address that must accept connections before the client runs")
	fl.StringVar(&opts.readyGRPC, "ready-grpc", "", "gRPC health endpoint that must report SERVING before the client runs")
	fl.StringSliceVar(&opts.readyCmd, "ready-cmd", nil, "check command that must exit zero before the client runs")
	fl.DurationVar(&opts.readyTimeout, "ready-timeout", 0, "overall readiness timeout")
	fl.BoolVar(&opts.tuiMode, "tui", false, "show a live terminal UI for the run")
	fl.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress the outcome summary")
	fl.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fl.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")

	return cmd
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	serviceCmd, clientCmd, err := splitCommands(args, cmd.ArgsLenAtDash())
	if err != nil {
		return err
	}

	cfg := config.Default()
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	o.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", supervisor.ErrInvalidCommand, err)
	}

	stopSignal, err := process.ParseSignal(cfg.Service.StopSignal)
	if err != nil {
		return fmt.Errorf("%w: %v", supervisor.ErrInvalidCommand, err)
	}

	spec := supervisor.RunSpec{
		Service: process.Spec{
			Command:   serviceCmd,
			Directory: cfg.Service.Directory,
			Env:       cfg.Service.Env,
		},
		Client: process.Spec{
			Command:   clientCmd,
			Directory: cfg.Client.Directory,
			Env:       cfg.Client.Env,
		},
		StopSignal:    stopSignal,
		StopWait:      cfg.Service.StopWait.Std(),
		KillWait:      cfg.Service.KillWait.Std(),
		Probes:        buildProbes(cfg.Service.Ready),
		ProbeTimeout:  cfg.Service.Ready.Timeout.Std(),
		ProbeInterval: cfg.Service.Ready.Interval.Std(),
	}

	// SIGINT/SIGTERM cancel the client; cleanup still runs.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	if o.tuiMode {
		o.outcome, runErr = o.runWithTUI(ctx, cfg, spec)
	} else {
		spec.Service.Stdout = os.Stdout
		spec.Service.Stderr = os.Stderr
		spec.Client.Stdout = os.Stdout
		spec.Client.Stderr = os.Stderr

		logger, lerr := logpkg.New(os.Stderr, logpkg.Config{
			Level:  cfg.Log.Level,
			Format: logpkg.Format(cfg.Log.Format),
		})
		if lerr != nil {
			return fmt.Errorf("%w: %v", supervisor.ErrInvalidCommand, lerr)
		}

		o.outcome, runErr = supervisor.New(logger).Run(ctx, spec)
	}

	if !o.quiet && o.outcome != nil {
		o.outcome.WriteSummary(os.Stdout)
	}
	return runErr
}

// runWithTUI runs the supervisor in the background and blocks on the
// monitor until the run, including cleanup, has finished.
func (o *options) runWithTUI(ctx context.Context, cfg *config.Config, spec supervisor.RunSpec) (*supervisor.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := supervisor.NewTracker()
	mon := tui.New(tracker, cancel)

	w := mon.LogWriter()
	spec.Service.Stdout = w
	spec.Service.Stderr = w
	spec.Client.Stdout = w
	spec.Client.Stderr = w

	logger, err := logpkg.New(w, logpkg.Config{
		Level:  cfg.Log.Level,
		Format: logpkg.Format(cfg.Log.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", supervisor.ErrInvalidCommand, err)
	}

	var (
		outcome *supervisor.Outcome
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		outcome, runErr = supervisor.New(logger, supervisor.WithTracker(tracker)).Run(ctx, spec)
	}()

	if uiErr := mon.Run(done); uiErr != nil {
		// The terminal UI could not start; abort the run and fall through
		// to the normal result handling.
		cancel()
	}
	<-done
	return outcome, runErr
}

// splitCommands separates the service and client argv at "--". Depending on
// where svrun's own flags ended, the separator is either recorded by pflag
// or still present as a literal argument.
func splitCommands(args []string, dash int) (service, client []string, err error) {
	for i, arg := range args {
		if arg == "--" {
			return validateSplit(args[:i], args[i+1:])
		}
	}
	if dash >= 0 {
		return validateSplit(args[:dash], args[dash:])
	}
	return nil, nil, fmt.Errorf("%w: expected \"--\" separating the service and client commands", supervisor.ErrInvalidCommand)
}

func validateSplit(service, client []string) ([]string, []string, error) {
	if len(service) == 0 {
		return nil, nil, fmt.Errorf("%w: service command is empty", supervisor.ErrInvalidCommand)
	}
	if len(client) == 0 {
		return nil, nil, fmt.Errorf("%w: client command is empty", supervisor.ErrInvalidCommand)
	}
	return service, client, nil
}

func (o *options) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("stop-signal") {
		cfg.Service.StopSignal = o.stopSignal
	}
	if fl.Changed("stop-wait") {
		cfg.Service.StopWait = config.Duration(o.stopWait)
	}
	if fl.Changed("kill-wait") {
		cfg.Service.KillWait = config.Duration(o.killWait)
	}
	if fl.Changed("ready-wait") {
		cfg.Service.Ready.Wait = config.Duration(o.readyWait)
	}
	if fl.Changed("ready-tcp") {
		cfg.Service.Ready.TCP = o.readyTCP
	}
	if fl.Changed("ready-grpc") {
		cfg.Service.Ready.GRPC = o.readyGRPC
	}
	if fl.Changed("ready-cmd") {
		cfg.Service.Ready.Command = o.readyCmd
	}
	if fl.Changed("ready-timeout") {
		cfg.Service.Ready.Timeout = config.Duration(o.readyTimeout)
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if fl.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
}

func buildProbes(rc config.ReadyConfig) []ready.Probe {
	var probes []ready.Probe
	if rc.Wait > 0 {
		probes = append(probes, ready.NewDelay(rc.Wait.Std()))
	}
	switch {
	case rc.TCP != "":
		probes = append(probes, &ready.TCP{Addr: rc.TCP})
	case rc.GRPC != "":
		probes = append(probes, &ready.GRPC{Target: rc.GRPC})
	case len(rc.Command) > 0:
		probes = append(probes, &ready.Command{Argv: rc.Command})
	}
	return probes
}
