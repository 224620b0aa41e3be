// Package session generates the commit messages cogit records on its own
// behalf: session markers and autosaves.
package session

import (
	"fmt"
	"time"
)

const stampLayout = "2006-01-02 15:04"

// StartMessage marks the start of an editing session.
func StartMessage(t time.Time) string {
	return "chore: session start – " + t.Format(stampLayout)
}

// EndMessage marks the end of an editing session.
func EndMessage(t time.Time) string {
	return "chore: session end – " + t.Format(stampLayout)
}

// AutosaveMessage describes an automatic commit of the given number of
// changed files.
func AutosaveMessage(files int, t time.Time) string {
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	return fmt.Sprintf("wip: auto-saving %d %s – %s", files, noun, t.Format(stampLayout))
}
