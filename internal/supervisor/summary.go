package supervisor

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// WriteSummary renders a colored console summary of the run.
func (o *Outcome) WriteSummary(w io.Writer) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	magenta := color.New(color.FgMagenta, color.Bold).SprintFunc()

	var client string
	switch {
	case o.ClientErr != nil:
		client = red(o.ClientErr.Error())
	case o.ClientStatus == 0:
		client = green("ok (exit 0)")
	default:
		client = red(fmt.Sprintf("exit %d", o.ClientStatus))
	}

	var service string
	switch {
	case o.CleanupOK && o.ServiceExited:
		service = green("already exited")
	case o.CleanupOK:
		service = green("stopped")
	case o.CleanupErr != nil:
		service = red(o.CleanupErr.Error())
	default:
		service = red("cleanup failed")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, magenta("SUPERVISED RUN RESULT"))
	fmt.Fprintln(w, strings.Repeat("-", 44))
	fmt.Fprintf(w, "%s | pid %-6d | %s\n", cyan("Service"), o.ServicePID, service)
	fmt.Fprintf(w, "%s | %s\n", cyan("Client "), client)
	fmt.Fprintln(w, strings.Repeat("-", 44))
}
