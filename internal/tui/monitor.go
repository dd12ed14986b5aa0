// Package tui renders a live terminal view of a supervised run.
package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/kolkov/svrun/internal/process"
	"github.com/kolkov/svrun/internal/supervisor"
)

const refreshInterval = 500 * time.Millisecond

// Monitor shows the service and client processes in a table with their
// combined output streaming below.
type Monitor struct {
	app     *tview.Application
	table   *tview.Table
	logView *tview.TextView
	tracker *supervisor.Tracker
	cancel  context.CancelFunc
}

// New builds the monitor UI. cancel aborts the run on Ctrl-C; the UI itself
// closes once the run (including cleanup) has finished.
func New(tracker *supervisor.Tracker, cancel context.CancelFunc) *Monitor {
	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(true).
		SetFixed(1, 1)

	headerStyle := tcell.Style{}.
		Foreground(tcell.ColorYellow).
		Background(tcell.ColorBlack).
		Bold(true)

	for col, title := range []string{"Process", "PID", "Status", "Uptime"} {
		table.SetCell(0, col, tview.NewTableCell(title).SetStyle(headerStyle))
	}

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetChangedFunc(func() {
			app.Draw()
		})
	logView.SetBorder(true).SetTitle("Output")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(logView, 12, 1, false)

	m := &Monitor{
		app:     app,
		table:   table,
		logView: logView,
		tracker: tracker,
		cancel:  cancel,
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			// Abort the run; the UI closes after cleanup completes.
			m.cancel()
			return nil
		}
		return event
	})

	app.SetRoot(flex, true).SetFocus(table)
	return m
}

// LogWriter returns the writer process output should be directed to.
func (m *Monitor) LogWriter() io.Writer {
	return tview.ANSIWriter(m.logView)
}

// Run blocks until done is closed.
func (m *Monitor) Run(done <-chan struct{}) error {
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				m.app.Stop()
				return
			case <-ticker.C:
				m.app.QueueUpdateDraw(m.update)
			}
		}
	}()

	m.update()
	return m.app.Run()
}

func (m *Monitor) update() {
	service, client := m.tracker.Snapshot()

	m.setRow(1, "service", service.PID, service.Status, service.StartTime)
	m.setRow(2, "client", client.PID, client.Status, client.StartTime)
}

func (m *Monitor) setRow(row int, name string, pid int, status process.Status, start time.Time) {
	pidStr := "N/A"
	if pid > 0 {
		pidStr = fmt.Sprintf("%d", pid)
	}

	uptime := "N/A"
	if !start.IsZero() {
		uptime = formatUptime(time.Since(start))
	}

	m.table.SetCell(row, 0, tview.NewTableCell(name))
	m.table.SetCell(row, 1, tview.NewTableCell(pidStr))
	m.table.SetCell(row, 2, tview.NewTableCell(string(status)).
		SetTextColor(statusColor(status)))
	m.table.SetCell(row, 3, tview.NewTableCell(uptime))
}

func statusColor(status process.Status) tcell.Color {
	switch status {
	case process.Running:
		return tcell.ColorGreen
	case process.Starting:
		return tcell.ColorYellow
	case process.Failed:
		return tcell.ColorRed
	case process.Stopped:
		return tcell.ColorBlue
	default:
		return tcell.ColorWhite
	}
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d - m*time.Minute) / time.Second
	return fmt.Sprintf("%02dm%02ds", m, s)
}
