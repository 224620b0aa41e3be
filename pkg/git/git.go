// Package git is the boundary between cogit and a single vault repository.
//
// Working-tree and transport operations shell out to the git CLI so the
// user's own configuration, hooks, ignore rules and credential helpers apply.
// Read-only history queries go through go-git.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandError describes a failed git invocation.
type CommandError struct {
	Args   []string
	Output string // stdout and stderr, trimmed
	Err    error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %v\n%s", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *CommandError) Unwrap() error { return e.Err }

// runRaw executes git in dir and returns stdout and stderr separately.
// Messages are forced to the C locale so they can be classified.
func runRaw(dir string, args ...string) (string, string, error) {
	// #nosec G204 - arguments are assembled by this package
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_MERGE_AUTOEDIT=no")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// run executes git in dir and returns its trimmed stdout.
func run(dir string, args ...string) (string, error) {
	stdout, stderr, err := runRaw(dir, args...)
	if err != nil {
		return "", newCommandError(args, stdout, stderr, err)
	}
	return strings.TrimSpace(stdout), nil
}

func newCommandError(args []string, stdout, stderr string, err error) *CommandError {
	output := strings.TrimSpace(strings.TrimSpace(stdout) + "\n" + strings.TrimSpace(stderr))
	return &CommandError{Args: args, Output: output, Err: err}
}

var networkMarkers = []string{
	"could not resolve host",
	"could not read from remote repository",
	"unable to access",
	"connection refused",
	"connection timed out",
	"operation timed out",
	"network is unreachable",
	"does not appear to be a git repository",
	"the remote end hung up unexpectedly",
	"ssh: connect to host",
}

var conflictMarkers = []string{
	"conflict (",
	"automatic merge failed",
	"would be overwritten by merge",
	"not possible to fast-forward",
	"refusing to merge unrelated histories",
	"you have not concluded your merge",
	"unresolved conflict",
}

// classify maps a failed transport or merge command onto the package
// sentinels. Unrecognised failures are returned unchanged.
func classify(err error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	output := strings.ToLower(cmdErr.Output)
	switch {
	case containsAny(output, conflictMarkers):
		return fmt.Errorf("%w: %w", ErrMergeConflict, err)
	case containsAny(output, networkMarkers):
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return err
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// splitNonEmpty splits a newline-separated string and returns non-empty lines.
func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
