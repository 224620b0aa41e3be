// Package helpers provides test utilities for creating vault repositories and
// remote scenarios.
package helpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// RequireGit skips the test when no git binary is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// TestRepo represents a test git repository
type TestRepo struct {
	Path string
	t    *testing.T
}

// NewTestRepo creates a repository on branch main with one commit in a
// temporary directory.
func NewTestRepo(t *testing.T, name string) *TestRepo {
	t.Helper()
	RequireGit(t)

	repoPath := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(repoPath, 0750); err != nil {
		t.Fatalf("Failed to create test repo directory: %v", err)
	}

	repo := &TestRepo{Path: repoPath, t: t}
	repo.Git("init", "--quiet", "-b", "main")
	repo.configure()

	repo.WriteFile("README.md", "# Test Vault\n")
	repo.Git("add", "README.md")
	repo.CommitWithDate("Initial commit", time.Now())

	return repo
}

// RemotePair is a bare remote with two working clones of it, standing in for
// the same vault on two machines.
type RemotePair struct {
	Remote string
	Local  *TestRepo
	Other  *TestRepo
}

// NewRemotePair creates a bare remote seeded with one commit on main and
// clones it twice. Both clones track origin/main.
func NewRemotePair(t *testing.T) *RemotePair {
	t.Helper()
	seed := NewTestRepo(t, "seed")

	remote := filepath.Join(t.TempDir(), "remote.git")
	runGit(t, "", "init", "--quiet", "--bare", "-b", "main", remote)
	seed.AddRemote("origin", remote)
	seed.Git("push", "--quiet", "-u", "origin", "main")

	return &RemotePair{
		Remote: remote,
		Local:  Clone(t, remote, "local"),
		Other:  Clone(t, remote, "other"),
	}
}

// Clone clones url into a fresh temporary directory.
func Clone(t *testing.T, url, name string) *TestRepo {
	t.Helper()
	dest := filepath.Join(t.TempDir(), name)
	runGit(t, "", "clone", "--quiet", url, dest)
	repo := &TestRepo{Path: dest, t: t}
	repo.configure()
	return repo
}

func (r *TestRepo) configure() {
	r.t.Helper()
	r.Git("config", "user.name", "Test User")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "commit.gpgsign", "false")
	r.Git("config", "pull.rebase", "false")
}

// WriteFile writes a file to the repository, creating parent directories.
func (r *TestRepo) WriteFile(filename, content string) {
	r.t.Helper()
	path := filepath.Join(r.Path, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		r.t.Fatalf("Failed to create directory for %s: %v", filename, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		r.t.Fatalf("Failed to write file %s: %v", filename, err)
	}
}

// ReadFile returns the contents of a file in the repository.
func (r *TestRepo) ReadFile(filename string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Path, filename))
	if err != nil {
		r.t.Fatalf("Failed to read file %s: %v", filename, err)
	}
	return string(data)
}

// CommitFile writes, stages and commits a single file.
func (r *TestRepo) CommitFile(filename, content, message string) string {
	r.t.Helper()
	r.WriteFile(filename, content)
	r.Git("add", filename)
	r.Commit(message)
	return r.Head()
}

// Commit creates a commit with the current timestamp
func (r *TestRepo) Commit(message string) {
	r.t.Helper()
	r.CommitWithDate(message, time.Now())
}

// CommitWithDate creates a commit with a specific author and committer time.
func (r *TestRepo) CommitWithDate(message string, date time.Time) {
	r.t.Helper()
	dateStr := date.Format(time.RFC3339)
	// #nosec G204 - git command with controlled inputs in test code
	cmd := exec.Command("git", "commit", "--quiet", "-m", message, "--date", dateStr)
	cmd.Dir = r.Path
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GIT_AUTHOR_DATE=%s", dateStr),
		fmt.Sprintf("GIT_COMMITTER_DATE=%s", dateStr),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		r.t.Fatalf("Failed to commit: %v\n%s", err, output)
	}
}

// AddRemote adds a remote to the repository
func (r *TestRepo) AddRemote(name, url string) {
	r.t.Helper()
	r.Git("remote", "add", name, url)
}

// Push pushes the current branch to origin/main.
func (r *TestRepo) Push() {
	r.t.Helper()
	r.Git("push", "--quiet", "origin", "HEAD:refs/heads/main")
}

// Fetch updates origin's remote-tracking refs.
func (r *TestRepo) Fetch() {
	r.t.Helper()
	r.Git("fetch", "--quiet", "origin")
}

// Head returns the full hash of HEAD.
func (r *TestRepo) Head() string {
	r.t.Helper()
	return r.Git("rev-parse", "HEAD")
}

// StashCount returns the number of stash entries.
func (r *TestRepo) StashCount() int {
	r.t.Helper()
	out := r.Git("stash", "list")
	if out == "" {
		return 0
	}
	return len(strings.Split(out, "\n"))
}

// Git runs a git command in the repository and returns its trimmed output.
func (r *TestRepo) Git(args ...string) string {
	r.t.Helper()
	return runGit(r.t, r.Path, args...)
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	// #nosec G204 - git command with controlled inputs in test code
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Git command failed: git %v\n%s", args, output)
	}
	return strings.TrimSpace(string(output))
}
