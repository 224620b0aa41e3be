package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

const (
	DefaultRemote = "origin"
	DefaultBranch = "main"
)

// Options configures a Repo.
type Options struct {
	Remote string // remote to fetch from and push to, default "origin"
	Branch string // branch pushed and pulled, default "main"
	Logger *zap.Logger
}

// Repo is a handle on one vault repository. Construction does not touch the
// disk; the first operation validates the path and every operation runs that
// check before doing anything else.
//
// A Repo is not safe for concurrent use.
type Repo struct {
	path   string
	remote string
	branch string
	logger *zap.Logger

	opened bool
}

// New returns a lazily validated handle for the repository at path.
func New(path string, opts Options) *Repo {
	if opts.Remote == "" {
		opts.Remote = DefaultRemote
	}
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Repo{
		path:   filepath.Clean(path),
		remote: opts.Remote,
		branch: opts.Branch,
		logger: opts.Logger,
	}
}

// Path returns the repository root.
func (r *Repo) Path() string { return r.path }

// Remote returns the configured remote name.
func (r *Repo) Remote() string { return r.remote }

// Branch returns the configured branch name.
func (r *Repo) Branch() string { return r.branch }

// Open validates the handle. It fails with ErrPathNotFound when the path
// does not exist and ErrNotARepository when it holds no repository metadata.
// A successful validation is remembered; failures are not.
func (r *Repo) Open() error {
	if r.opened {
		return nil
	}
	info, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPathNotFound, r.path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", r.path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotARepository, r.path)
	}
	if _, err := gogit.PlainOpen(r.path); err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return fmt.Errorf("%w: %s", ErrNotARepository, r.path)
		}
		return fmt.Errorf("open repository %s: %w", r.path, err)
	}
	r.opened = true
	r.logger.Debug("repository opened", zap.String("path", r.path))
	return nil
}

// git runs a git command inside the repository after validating the handle.
func (r *Repo) git(args ...string) (string, error) {
	if err := r.Open(); err != nil {
		return "", err
	}
	r.logger.Debug("running git", zap.Strings("args", args))
	return run(r.path, args...)
}

// gitRaw is git without error wrapping or trimming, for commands whose exit
// status and output must be interpreted by the caller.
func (r *Repo) gitRaw(args ...string) (string, string, error) {
	if err := r.Open(); err != nil {
		return "", "", err
	}
	r.logger.Debug("running git", zap.Strings("args", args))
	return runRaw(r.path, args...)
}

// repository opens a fresh go-git handle. Reopening per query keeps packs
// written by the git binary since the previous call visible.
func (r *Repo) repository() (*gogit.Repository, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpen(r.path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", r.path, err)
	}
	return repo, nil
}

// CurrentBranchCommit returns the hash HEAD points to.
func (r *Repo) CurrentBranchCommit() (string, error) {
	repo, err := r.repository()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// TrackingBranchCommit returns the commit of the remote-tracking branch
// pull and push act on: refs/remotes/<remote>/<branch> for the handle's
// remote and branch. When that ref has not been fetched, the upstream HEAD
// is configured to follow is used instead. ok is false when neither exists.
func (r *Repo) TrackingBranchCommit() (hash string, ok bool, err error) {
	repo, err := r.repository()
	if err != nil {
		return "", false, err
	}
	commit, ok, err := r.trackingCommit(repo)
	if err != nil || !ok {
		return "", ok, err
	}
	return commit.Hash.String(), true, nil
}

func (r *Repo) trackingCommit(repo *gogit.Repository) (*object.Commit, bool, error) {
	refName := plumbing.NewRemoteReferenceName(r.remote, r.branch)
	ref, err := repo.Reference(refName, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		r.logger.Debug("configured remote branch not fetched, using upstream", zap.String("ref", refName.Short()))
		return upstreamCommit(repo)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrNoUpstream, refName.Short(), err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, false, fmt.Errorf("read commit %s: %w", ref.Hash(), err)
	}
	return commit, true, nil
}

// upstreamCommit resolves the upstream recorded in git config for the
// branch HEAD is on.
func upstreamCommit(repo *gogit.Repository) (*object.Commit, bool, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, false, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return nil, false, nil
	}
	cfg, err := repo.Config()
	if err != nil {
		return nil, false, fmt.Errorf("read repository config: %w", err)
	}
	branch, found := cfg.Branches[head.Name().Short()]
	if !found || branch.Remote == "" || branch.Remote == "." || branch.Merge == "" {
		return nil, false, nil
	}
	refName := plumbing.NewRemoteReferenceName(branch.Remote, branch.Merge.Short())
	ref, err := repo.Reference(refName, true)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrNoUpstream, refName.Short(), err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, false, fmt.Errorf("read commit %s: %w", ref.Hash(), err)
	}
	return commit, true, nil
}

// IsAncestor reports whether ancestor is reachable from descendant. A commit
// is its own ancestor.
func (r *Repo) IsAncestor(ancestor, descendant string) (bool, error) {
	repo, err := r.repository()
	if err != nil {
		return false, err
	}
	a, err := commitObject(repo, ancestor)
	if err != nil {
		return false, err
	}
	d, err := commitObject(repo, descendant)
	if err != nil {
		return false, err
	}
	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, fmt.Errorf("ancestry %s..%s: %w", short(ancestor), short(descendant), err)
	}
	return ok, nil
}

// MergeBase returns the best common ancestors of a and b.
func (r *Repo) MergeBase(a, b string) ([]string, error) {
	repo, err := r.repository()
	if err != nil {
		return nil, err
	}
	ca, err := commitObject(repo, a)
	if err != nil {
		return nil, err
	}
	cb, err := commitObject(repo, b)
	if err != nil {
		return nil, err
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return nil, fmt.Errorf("merge-base %s %s: %w", short(a), short(b), err)
	}
	hashes := make([]string, len(bases))
	for i, c := range bases {
		hashes[i] = c.Hash.String()
	}
	return hashes, nil
}

// LastRemoteCommitTimestamp returns the committer time of the commit
// TrackingBranchCommit resolves. Any failure yields ok=false; callers only display it.
func (r *Repo) LastRemoteCommitTimestamp() (time.Time, bool) {
	repo, err := r.repository()
	if err != nil {
		return time.Time{}, false
	}
	commit, ok, err := r.trackingCommit(repo)
	if err != nil || !ok {
		r.logger.Debug("no remote commit timestamp", zap.Error(err))
		return time.Time{}, false
	}
	return commit.Committer.When, true
}

// RemoteURL returns the first URL configured for the remote.
func (r *Repo) RemoteURL() (string, error) {
	repo, err := r.repository()
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(r.remote)
	if err != nil {
		return "", fmt.Errorf("remote %q: %w", r.remote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", r.remote)
	}
	return urls[0], nil
}

func commitObject(repo *gogit.Repository, hash string) (*object.Commit, error) {
	if !plumbing.IsHash(hash) {
		return nil, fmt.Errorf("invalid commit hash %q", hash)
	}
	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", short(hash), err)
	}
	return commit, nil
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
