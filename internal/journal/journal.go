// Package journal implements an append-only JSONL record of the sync
// operations cogit performed on a vault, kept in monthly files.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const schemaVersion = 1

// Entry is a single record written to the JSONL journal.
type Entry struct {
	SchemaVersion int       `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	Vault         string    `json:"vault,omitempty"`

	Command   *CommandEntry   `json:"command,omitempty"`
	Operation *OperationEntry `json:"operation,omitempty"`
	Status    *StatusEntry    `json:"status,omitempty"`
}

// CommandEntry records which command was invoked.
type CommandEntry struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags"`
}

// OperationEntry records the result of a pull, push or commit.
type OperationEntry struct {
	Name       string   `json:"name"`
	Success    bool     `json:"success"`
	Steps      []string `json:"steps,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// StatusEntry records the result of a status check.
type StatusEntry struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

// Journal handles writing entries to monthly JSONL files.
type Journal struct {
	mu        sync.Mutex
	dir       string
	vault     string
	sessionID string
	now       func() time.Time
	file      *os.File
	filePath  string
}

// Dir returns the default journal directory:
// $XDG_DATA_HOME/cogit/journal, or ~/.local/share/cogit/journal.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cogit", "journal"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("journal: home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "cogit", "journal"), nil
}

// New creates a Journal for vault in the default directory. The directory
// is created if needed.
func New(vault string) (*Journal, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewWithDir(dir, vault)
}

// NewOrNil returns a Journal using the default directory, or nil if
// initialization fails. Preferred for command integration where the
// journal should never block execution.
func NewOrNil(vault string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	j, err := New(vault)
	if err != nil {
		logger.Debug("journal disabled", zap.Error(err))
		return nil
	}
	return j
}

// NewWithDir creates a Journal writing to dir. Primarily useful for testing.
func NewWithDir(dir, vault string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	return &Journal{
		dir:       dir,
		vault:     vault,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}, nil
}

// SessionID identifies the process writing entries.
func (j *Journal) SessionID() string {
	if j == nil {
		return ""
	}
	return j.sessionID
}

// Log writes an entry to the current month's JSONL file. The entry's
// SchemaVersion, Timestamp, SessionID and Vault are set automatically.
// A nil Journal is safe and silently discards all entries.
func (j *Journal) Log(entry Entry) error {
	if j == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry.SchemaVersion = schemaVersion
	entry.Timestamp = j.now()
	entry.SessionID = j.sessionID
	entry.Vault = j.vault

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: marshal entry: %w", err)
	}
	data = append(data, '\n')

	f, err := j.openFile()
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("journal: write entry: %w", err)
	}
	return nil
}

// LogCommand records a command invocation.
func (j *Journal) LogCommand(name string, flags []string) error {
	return j.Log(Entry{Command: &CommandEntry{Name: name, Flags: flags}})
}

// LogOperation records the result of a pull, push or commit. opErr is nil on
// success.
func (j *Journal) LogOperation(name string, steps []string, opErr error, took time.Duration) error {
	op := &OperationEntry{
		Name:       name,
		Success:    opErr == nil,
		Steps:      steps,
		DurationMs: took.Milliseconds(),
	}
	if opErr != nil {
		op.Error = opErr.Error()
	}
	return j.Log(Entry{Operation: op})
}

// LogStatus records the result of a status check.
func (j *Journal) LogStatus(state, message string) error {
	return j.Log(Entry{Status: &StatusEntry{State: state, Message: message}})
}

// Recent returns up to n of the latest entries in the current month's file,
// oldest first. Lines that do not parse are skipped. A nil Journal or a
// missing file yields no entries.
func (j *Journal) Recent(n int) ([]Entry, error) {
	if j == nil || n <= 0 {
		return nil, nil
	}

	j.mu.Lock()
	path := filepath.Join(j.dir, fileName(j.now()))
	j.mu.Unlock()

	// #nosec G304 - path constructed from configured dir and deterministic filename
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
		if len(entries) > n {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: read file: %w", err)
	}
	return entries, nil
}

// Close closes the underlying file. A nil Journal is safe.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		j.filePath = ""
		return err
	}
	return nil
}

// openFile returns the file handle for the current month's JSONL file,
// opening or rotating as needed. Caller must hold j.mu.
func (j *Journal) openFile() (*os.File, error) {
	want := filepath.Join(j.dir, fileName(j.now()))
	if j.file != nil && j.filePath == want {
		return j.file, nil
	}

	if j.file != nil {
		_ = j.file.Close()
		j.file = nil
		j.filePath = ""
	}

	// #nosec G304 - path constructed from configured dir and deterministic filename
	f, err := os.OpenFile(want, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	j.file = f
	j.filePath = want
	return f, nil
}

// fileName returns the JSONL file name for the month containing t.
func fileName(t time.Time) string {
	return t.Format("journal-2006-01") + ".jsonl"
}
