// Package sync implements the vault synchronisation protocol: classifying
// the local branch against its remote and pushing with automatic
// stash-pull-restore recovery when the remote has moved.
package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gosync "sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/pkg/git"
)

// DefaultStashLabel labels the stash entry taken before an automatic pull.
const DefaultStashLabel = "Auto-stash before sync"

// StepKind names a step of a push or pull.
type StepKind string

const (
	StepFetch   StepKind = "fetch"
	StepCompare StepKind = "compare"
	StepStash   StepKind = "stash"
	StepPull    StepKind = "pull"
	StepRestore StepKind = "restore"
	StepPush    StepKind = "push"
	StepCommit  StepKind = "commit"
)

// Step is one completed action of a push or pull.
type Step struct {
	Kind    StepKind
	Message string
}

// Outcome records the steps a push or pull actually took, in order. It is
// returned alongside errors so partial progress can be shown.
type Outcome struct {
	Steps   []Step
	Success bool
}

// Messages returns the step messages in order.
func (o Outcome) Messages() []string {
	return lo.Map(o.Steps, func(s Step, _ int) string { return s.Message })
}

func (o *Outcome) record(kind StepKind, message string) {
	o.Steps = append(o.Steps, Step{Kind: kind, Message: message})
}

// Options controls coordinator behavior.
type Options struct {
	Logger     *zap.Logger
	Now        func() time.Time // clock for timestamp formatting, default time.Now
	StashLabel string           // default DefaultStashLabel
}

// Coordinator drives one repository through status checks, pulls, commits
// and pushes. Its methods are safe for concurrent use; operations are
// serialised so at most one touches the repository at a time.
type Coordinator struct {
	mu         gosync.Mutex
	ops        GitOps
	logger     *zap.Logger
	now        func() time.Time
	stashLabel string
}

// New returns a Coordinator around ops.
func New(ops GitOps, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StashLabel == "" {
		opts.StashLabel = DefaultStashLabel
	}
	return &Coordinator{
		ops:        ops,
		logger:     opts.Logger,
		now:        opts.Now,
		stashLabel: opts.StashLabel,
	}
}

// isRemoteAhead reports whether remote carries commits local lacks: the two
// differ and remote is not a merge base of the pair.
func isRemoteAhead(ops GitOps, local, remote string) (bool, error) {
	if local == remote {
		return false, nil
	}
	bases, err := ops.MergeBase(local, remote)
	if err != nil {
		return false, err
	}
	return !lo.Contains(bases, remote), nil
}

// CommitAll commits every change in the vault. A clean tree yields a NoOp
// result.
func (c *Coordinator) CommitAll(message string) (git.CommitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.ops.CommitAll(message)
	if err != nil {
		return git.CommitResult{}, err
	}
	if res.NoOp {
		c.logger.Debug("nothing to commit")
	}
	return res, nil
}

// Pull fetches and integrates the remote branch. The outcome has a single
// "No changes pulled." step when nothing moved, otherwise one step per
// updated reference.
func (c *Coordinator) Pull() (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out Outcome
	summary, err := c.ops.Pull()
	if err != nil {
		return out, &SyncError{Step: StepPull, Err: err}
	}
	if !summary.Changed() {
		out.record(StepPull, "No changes pulled.")
	}
	for _, u := range summary.Updates {
		out.record(StepPull, fmt.Sprintf("%s: %s", shortRef(u.Ref), u.Kind))
	}
	out.Success = true
	c.logger.Info("pull finished", zap.Int("updated_refs", len(summary.Updates)))
	return out, nil
}

// Push sends local commits to the remote. When the remote has commits the
// local branch lacks, local edits are stashed, the remote is pulled and the
// edits restored before pushing. A stash taken here is never dropped on a
// failure path.
func (c *Coordinator) Push() (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out Outcome
	if err := c.ops.Fetch(); err != nil {
		return out, &SyncError{Step: StepFetch, Err: err}
	}

	remoteAhead, err := c.remoteAhead()
	if err != nil {
		return out, &SyncError{Step: StepCompare, Err: err}
	}

	if remoteAhead {
		if err := c.integrateRemote(&out); err != nil {
			return out, err
		}
	}

	summary, err := c.ops.Push()
	if failed := summary.Failed(); len(failed) > 0 {
		lines := lo.Map(failed, func(p git.PushRef, _ int) string {
			return fmt.Sprintf("Push failed for %s: %s", p.To, p.Summary)
		})
		c.logger.Warn("push rejected", zap.Strings("refs", lo.Map(failed, func(p git.PushRef, _ int) string { return p.To })))
		return out, &SyncError{
			Step: StepPush,
			Err:  fmt.Errorf("%w\n%s", git.ErrPushRejected, strings.Join(lines, "\n")),
		}
	}
	if err != nil {
		return out, &SyncError{Step: StepPush, Err: err}
	}
	out.record(StepPush, "Push successful.")
	out.Success = true
	c.logger.Info("push finished", zap.Bool("pulled_first", remoteAhead))
	return out, nil
}

func (c *Coordinator) remoteAhead() (bool, error) {
	local, err := c.ops.CurrentBranchCommit()
	if err != nil {
		return false, err
	}
	remote, ok, err := c.ops.TrackingBranchCommit()
	if err != nil {
		return false, err
	}
	if !ok {
		c.logger.Debug("no tracking branch, pushing directly")
		return false, nil
	}
	return isRemoteAhead(c.ops, local, remote)
}

// integrateRemote runs the stash, pull and restore steps.
func (c *Coordinator) integrateRemote(out *Outcome) error {
	dirty, err := c.ops.IsDirty()
	if err != nil {
		return &SyncError{Step: StepStash, Err: err}
	}

	var stash git.StashID
	if dirty {
		stash, err = c.ops.StashSave(c.stashLabel)
		if err != nil {
			return &SyncError{Step: StepStash, Err: err}
		}
		if stash != "" {
			out.record(StepStash, "Stashed local changes.")
			c.logger.Info("stashed local changes", zap.String("stash", string(stash)))
		}
	}

	if _, err := c.ops.Pull(); err != nil {
		return c.recoverFailedPull(stash, err)
	}
	out.record(StepPull, "Pulled remote changes.")

	if stash != "" {
		if err := c.ops.StashPop(stash); err != nil {
			c.logger.Warn("restoring stash failed, stash kept", zap.String("stash", string(stash)), zap.Error(err))
			return &SyncError{Step: StepRestore, Err: err, Hint: hintRestoreConflict}
		}
		out.record(StepRestore, "Restored local changes.")
	}
	return nil
}

// recoverFailedPull backs out a half-finished merge and puts stashed edits
// back. A failed restore is reported together with the pull failure.
func (c *Coordinator) recoverFailedPull(stash git.StashID, pullErr error) error {
	if err := c.ops.MergeAbort(); err != nil {
		c.logger.Debug("merge --abort failed (may not be in merge state)", zap.Error(err))
	}
	if stash == "" {
		return &SyncError{Step: StepPull, Err: pullErr}
	}
	if err := c.ops.StashPop(stash); err != nil {
		c.logger.Warn("restoring stash after failed pull failed, stash kept", zap.String("stash", string(stash)), zap.Error(err))
		return &SyncError{
			Step: StepPull,
			Err:  errors.Join(pullErr, fmt.Errorf("restore stash: %w", err)),
			Hint: hintRestoreAfterPull,
		}
	}
	return &SyncError{Step: StepPull, Err: pullErr}
}

func shortRef(ref string) string {
	for _, prefix := range []string{"refs/heads/", "refs/remotes/", "refs/tags/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ref
}
