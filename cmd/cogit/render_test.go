package main

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/agrahamlincoln/cogit/internal/github"
	"github.com/agrahamlincoln/cogit/internal/journal"
	"github.com/agrahamlincoln/cogit/internal/sync"
	"github.com/agrahamlincoln/cogit/pkg/git"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state sync.State
		want  string
	}{
		{sync.UpToDate, "up to date"},
		{sync.LocalAhead, "local ahead"},
		{sync.RemoteAhead, "remote ahead"},
		{sync.Diverged, "diverged"},
		{sync.Error, "error"},
	}
	for _, tt := range tests {
		if got := stateLabel(tt.state); got != tt.want {
			t.Errorf("stateLabel(%v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateColor(t *testing.T) {
	assert.True(t, stateColor(sync.UpToDate).Equals(color.New(color.FgGreen)))
	assert.True(t, stateColor(sync.RemoteAhead).Equals(color.New(color.FgBlue)))
	assert.True(t, stateColor(sync.LocalAhead).Equals(color.New(color.FgYellow)))
	assert.True(t, stateColor(sync.Diverged).Equals(color.New(color.FgRed)))
	assert.True(t, stateColor(sync.Error).Equals(color.New(color.FgRed)))
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, sync.StatusResult{
		State:    sync.RemoteAhead,
		Message:  "Remote has new changes.",
		LastSync: "09:15",
	})
	assert.Equal(t, "[remote ahead] Remote has new changes.\n  Last sync: 09:15\n", buf.String())

	buf.Reset()
	renderStatus(&buf, sync.StatusResult{State: sync.Error, Message: "No tracking branch configured."})
	assert.Equal(t, "[error] No tracking branch configured.\n", buf.String())
}

func TestRenderOutcomeSuccess(t *testing.T) {
	out := sync.Outcome{Success: true, Steps: []sync.Step{
		{Kind: sync.StepPull, Message: "Pulled remote changes."},
		{Kind: sync.StepPush, Message: "Push successful."},
	}}
	var buf bytes.Buffer
	renderOutcome(&buf, out, nil)
	assert.Equal(t, "  [ok] Pulled remote changes.\n  [ok] Push successful.\n", buf.String())
}

func TestRenderOutcomeSyncError(t *testing.T) {
	out := sync.Outcome{Steps: []sync.Step{
		{Kind: sync.StepStash, Message: "Stashed local changes."},
		{Kind: sync.StepPull, Message: "Pulled remote changes."},
	}}
	err := &sync.SyncError{
		Step: sync.StepRestore,
		Err:  git.ErrStashConflict,
		Hint: "Run 'git stash pop' manually.",
	}

	var buf bytes.Buffer
	renderOutcome(&buf, out, err)
	got := buf.String()
	assert.Contains(t, got, "[ok] Stashed local changes.")
	assert.Contains(t, got, "[fail] restore failed: "+git.ErrStashConflict.Error())
	assert.Contains(t, got, "Run 'git stash pop' manually.")
}

func TestRenderOutcomePlainError(t *testing.T) {
	var buf bytes.Buffer
	renderOutcome(&buf, sync.Outcome{}, errors.New("boom"))
	assert.Equal(t, "  [fail] boom\n", buf.String())
}

func TestDescribeCommit(t *testing.T) {
	assert.Equal(t, "No changes to commit.", describeCommit(git.CommitResult{NoOp: true}))
	assert.Equal(t, "Committed: abc1234 - notes",
		describeCommit(git.CommitResult{Hash: "abc1234", Message: "notes"}))
}

func TestRenderRepoInfo(t *testing.T) {
	info := github.RepoInfo{
		FullName:      "someone/vault",
		DefaultBranch: "main",
		Visibility:    "private",
		PushedAt:      time.Now(),
	}

	var buf bytes.Buffer
	renderRepoInfo(&buf, info, "main")
	got := buf.String()
	assert.Contains(t, got, "someone/vault")
	assert.Contains(t, got, "private")
	assert.Contains(t, got, "today")
	assert.NotContains(t, got, "[warn]")

	info.Archived = true
	buf.Reset()
	renderRepoInfo(&buf, info, "notes")
	got = buf.String()
	assert.Contains(t, got, "archived")
	assert.Contains(t, got, `syncing branch "notes" but the default branch is "main"`)
}

func TestRenderEntry(t *testing.T) {
	ts := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	tests := []struct {
		name  string
		entry journal.Entry
		want  []string
	}{
		{
			name:  "command",
			entry: journal.Entry{Timestamp: ts, Command: &journal.CommandEntry{Name: "push", Flags: []string{"--no-commit"}}},
			want:  []string{"2025-06-15 10:00:00", "cogit push --no-commit"},
		},
		{
			name:  "failed operation",
			entry: journal.Entry{Timestamp: ts, Operation: &journal.OperationEntry{
				Name: "push", Steps: []string{"Stashed local changes."},
				Error: "restore failed: conflict\nRun 'git stash pop' manually.", DurationMs: 42,
			}},
			want: []string{"push failed (42ms)", "Stashed local changes.", "restore failed: conflict"},
		},
		{
			name:  "status",
			entry: journal.Entry{Timestamp: ts, Status: &journal.StatusEntry{State: "Diverged", Message: "Branches have diverged."}},
			want:  []string{"status Diverged: Branches have diverged."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderEntry(&buf, tt.entry)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.NotContains(t, buf.String(), "manually")
		})
	}
}

func TestFormatAge(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown date"},
		{"today", time.Now().Add(-time.Hour), "today"},
		{"yesterday", time.Now().Add(-day - time.Hour), "1 day ago"},
		{"days", time.Now().Add(-10*day - time.Hour), "10 days ago"},
		{"month", time.Now().Add(-35 * day), "1 month ago"},
		{"months", time.Now().Add(-100 * day), "3 months ago"},
		{"years", time.Now().Add(-800 * day), "2 years ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAge(tt.t))
		})
	}
}
