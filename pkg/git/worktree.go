package git

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// CommitResult describes the outcome of CommitAll. NoOp is set when the
// working tree had nothing to commit; no commit was created.
type CommitResult struct {
	NoOp    bool
	Hash    string // abbreviated
	Message string
}

// StashID identifies a stash entry by its commit hash. The empty ID means
// nothing was stashed.
type StashID string

// IsDirty returns true if the working tree has uncommitted changes,
// including untracked files that are not ignored.
func (r *Repo) IsDirty() (bool, error) {
	paths, err := r.ChangedPaths()
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// ChangedPaths returns every path git status reports as modified, staged,
// deleted or untracked.
func (r *Repo) ChangedPaths() ([]string, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}
	stdout, stderr, err := r.gitRaw("status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, newCommandError([]string{"status", "--porcelain"}, stdout, stderr, err)
	}
	return parseStatusPorcelain(stdout), nil
}

// parseStatusPorcelain extracts paths from `git status --porcelain` (v1)
// output. Renames report their destination.
func parseStatusPorcelain(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+len(" -> "):]
		}
		if strings.HasPrefix(path, `"`) {
			if unquoted, err := strconv.Unquote(path); err == nil {
				path = unquoted
			}
		}
		paths = append(paths, path)
	}
	return paths
}

// CommitAll stages every change, including untracked and deleted files, and
// records a single commit. A clean tree yields a NoOp result, not an error.
func (r *Repo) CommitAll(message string) (CommitResult, error) {
	if strings.TrimSpace(message) == "" {
		return CommitResult{}, ErrEmptyMessage
	}
	dirty, err := r.IsDirty()
	if err != nil {
		return CommitResult{}, err
	}
	if !dirty {
		return CommitResult{NoOp: true}, nil
	}
	if _, err := r.git("add", "--all"); err != nil {
		return CommitResult{}, fmt.Errorf("stage changes: %w", err)
	}
	if _, err := r.git("commit", "--quiet", "-m", message); err != nil {
		return CommitResult{}, fmt.Errorf("commit: %w", err)
	}
	hash, err := r.git("rev-parse", "--short=7", "HEAD")
	if err != nil {
		return CommitResult{}, err
	}
	r.logger.Info("committed", zap.String("hash", hash), zap.String("message", message))
	return CommitResult{Hash: hash, Message: message}, nil
}

// StashSave stashes working-tree modifications, untracked files included,
// under label. It returns the empty ID when there was nothing to stash.
func (r *Repo) StashSave(label string) (StashID, error) {
	before, err := r.stashTop()
	if err != nil {
		return "", err
	}
	if _, err := r.git("stash", "push", "--include-untracked", "-m", label); err != nil {
		return "", fmt.Errorf("stash push: %w", err)
	}
	after, err := r.stashTop()
	if err != nil {
		return "", err
	}
	if after == "" || after == before {
		return "", nil
	}
	r.logger.Debug("stashed changes", zap.String("stash", short(after)), zap.String("label", label))
	return StashID(after), nil
}

// StashPop restores the stash entry id and removes it. When the restore
// collides with the working tree the error wraps ErrStashConflict and git
// keeps the entry, so nothing is lost.
func (r *Repo) StashPop(id StashID) error {
	if id == "" {
		return fmt.Errorf("%w: empty stash id", ErrStashConflict)
	}
	out, err := r.git("stash", "list", "--format=%H")
	if err != nil {
		return fmt.Errorf("stash list: %w", err)
	}
	index := -1
	for i, hash := range splitNonEmpty(out) {
		if hash == string(id) {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: stash %s not found", ErrStashConflict, short(string(id)))
	}
	ref := fmt.Sprintf("stash@{%d}", index)
	stdout, stderr, err := r.gitRaw("stash", "pop", ref)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStashConflict, newCommandError([]string{"stash", "pop", ref}, stdout, stderr, err))
	}
	r.logger.Debug("restored stash", zap.String("stash", short(string(id))))
	return nil
}

// stashTop returns the hash of the newest stash entry, or "" when the stash
// is empty.
func (r *Repo) stashTop() (string, error) {
	if err := r.Open(); err != nil {
		return "", err
	}
	stdout, stderr, err := r.gitRaw("rev-parse", "--quiet", "--verify", "refs/stash")
	if err != nil {
		if strings.TrimSpace(stderr) == "" {
			return "", nil
		}
		return "", newCommandError([]string{"rev-parse", "refs/stash"}, stdout, stderr, err)
	}
	return strings.TrimSpace(stdout), nil
}
