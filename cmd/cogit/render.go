package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/agrahamlincoln/cogit/internal/sync"
)

// stateColor picks the color a sync state is shown in.
func stateColor(s sync.State) *color.Color {
	switch s {
	case sync.UpToDate:
		return color.New(color.FgGreen)
	case sync.RemoteAhead:
		return color.New(color.FgBlue)
	case sync.LocalAhead:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// stateLabel is the short tag printed before a status message.
func stateLabel(s sync.State) string {
	switch s {
	case sync.UpToDate:
		return "up to date"
	case sync.LocalAhead:
		return "local ahead"
	case sync.RemoteAhead:
		return "remote ahead"
	case sync.Diverged:
		return "diverged"
	default:
		return "error"
	}
}

// renderStatus prints a status check result.
func renderStatus(w io.Writer, res sync.StatusResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	_, _ = fmt.Fprintf(w, "%s %s\n", stateColor(res.State).Sprintf("[%s]", stateLabel(res.State)), bold.Sprint(res.Message))
	if res.LastSync != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", dim.Sprintf("Last sync: %s", res.LastSync))
	}
}

// renderOutcome prints the steps a push or pull took, followed by the error
// that stopped it, if any.
func renderOutcome(w io.Writer, out sync.Outcome, err error) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, msg := range out.Messages() {
		_, _ = fmt.Fprintf(w, "  %s %s\n", green.Sprint("[ok]"), msg)
	}
	if err == nil {
		return
	}

	var syncErr *sync.SyncError
	if errors.As(err, &syncErr) {
		_, _ = fmt.Fprintf(w, "  %s %s failed: %v\n", red.Sprint("[fail]"), syncErr.Step, syncErr.Err)
		if syncErr.Hint != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", color.New(color.FgYellow).Sprint(syncErr.Hint))
		}
		return
	}
	_, _ = fmt.Fprintf(w, "  %s %v\n", red.Sprint("[fail]"), err)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	days := int(time.Since(t).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "1 day ago"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	case days < 365:
		months := days / 30
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := days / 365
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}
