package journal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T, dir string) *Journal {
	t.Helper()
	j, err := NewWithDir(dir, "/vault")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, j.Close())
	})
	return j
}

func readEntries(t *testing.T, dir string, now time.Time) []Entry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, fileName(now)))
	require.NoError(t, err)
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	newJournal(t, dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSessionID(t *testing.T) {
	a := newJournal(t, t.TempDir())
	b := newJournal(t, t.TempDir())

	_, err := uuid.Parse(a.SessionID())
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "cogit", "journal"), dir)

	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	dir, err = Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "cogit", "journal"), dir)
}

func TestLogWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	j := newJournal(t, dir)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	require.NoError(t, j.LogCommand("push", []string{"--no-commit"}))
	require.NoError(t, j.LogOperation("push",
		[]string{"Stashed local changes.", "Pulled remote changes."},
		errors.New("restore failed"), 1500*time.Millisecond))
	require.NoError(t, j.LogStatus("Diverged", "Branches have diverged."))
	require.NoError(t, j.Close())

	entries := readEntries(t, dir, now)
	require.Len(t, entries, 3)

	for _, e := range entries {
		assert.Equal(t, 1, e.SchemaVersion)
		assert.Equal(t, j.SessionID(), e.SessionID)
		assert.Equal(t, "/vault", e.Vault)
		assert.True(t, e.Timestamp.Equal(now))
	}

	require.NotNil(t, entries[0].Command)
	assert.Equal(t, "push", entries[0].Command.Name)
	assert.Equal(t, []string{"--no-commit"}, entries[0].Command.Flags)

	op := entries[1].Operation
	require.NotNil(t, op)
	assert.False(t, op.Success)
	assert.Equal(t, "restore failed", op.Error)
	assert.Equal(t, int64(1500), op.DurationMs)
	assert.Len(t, op.Steps, 2)

	require.NotNil(t, entries[2].Status)
	assert.Equal(t, "Diverged", entries[2].Status.State)
}

func TestLogOmitsNilFields(t *testing.T) {
	dir := t.TempDir()
	j := newJournal(t, dir)
	require.NoError(t, j.LogOperation("commit", nil, nil, 0))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(filepath.Join(dir, fileName(time.Now())))
	require.NoError(t, err)
	line := string(data)
	assert.NotContains(t, line, `"command"`)
	assert.NotContains(t, line, `"status"`)
	assert.NotContains(t, line, `"error"`)
	assert.NotContains(t, line, `"steps"`)
	assert.Contains(t, line, `"success":true`)
}

func TestMonthlyFileRotation(t *testing.T) {
	dir := t.TempDir()
	j := newJournal(t, dir)

	june := time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC)
	july := june.Add(2 * time.Minute)

	j.now = func() time.Time { return june }
	require.NoError(t, j.LogCommand("status", nil))
	j.now = func() time.Time { return july }
	require.NoError(t, j.LogCommand("status", nil))
	require.NoError(t, j.Close())

	assert.FileExists(t, filepath.Join(dir, "journal-2025-06.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "journal-2025-07.jsonl"))
	assert.Len(t, readEntries(t, dir, june), 1)
	assert.Len(t, readEntries(t, dir, july), 1)
}

func TestRecent(t *testing.T) {
	dir := t.TempDir()
	j := newJournal(t, dir)

	for _, name := range []string{"status", "pull", "commit", "push"} {
		require.NoError(t, j.LogCommand(name, nil))
	}

	entries, err := j.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "commit", entries[0].Command.Name)
	assert.Equal(t, "push", entries[1].Command.Name)

	all, err := j.Recent(10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRecentSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	j := newJournal(t, dir)
	require.NoError(t, j.LogCommand("status", nil))
	require.NoError(t, j.Close())

	f, err := os.OpenFile(filepath.Join(dir, fileName(time.Now())), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, j.LogCommand("pull", nil))
	entries, err := j.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "pull", entries[1].Command.Name)
}

func TestRecentWithoutFile(t *testing.T) {
	j := newJournal(t, t.TempDir())
	entries, err := j.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseIdempotent(t *testing.T) {
	j, err := NewWithDir(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, j.LogCommand("status", nil))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())
}

func TestNewOrNil(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	j := NewOrNil("/notes/vault", nil)
	require.NotNil(t, j)
	require.NoError(t, j.Close())

	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0600))
	t.Setenv("XDG_DATA_HOME", blocked)
	assert.Nil(t, NewOrNil("/notes/vault", nil))
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	assert.NoError(t, j.Log(Entry{}))
	assert.NoError(t, j.LogCommand("status", nil))
	assert.NoError(t, j.LogOperation("push", nil, errors.New("x"), time.Second))
	assert.NoError(t, j.LogStatus("Error", "boom"))
	entries, err := j.Recent(3)
	assert.NoError(t, err)
	assert.Nil(t, entries)
	assert.Empty(t, j.SessionID())
	assert.NoError(t, j.Close())
}
