package git

import (
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// UpdateKind names how a reference moved during a pull.
type UpdateKind string

const (
	UpdateNew          UpdateKind = "new"
	UpdateFastForward  UpdateKind = "fast-forward"
	UpdateForced       UpdateKind = "forced-update"
	UpdateDeleted      UpdateKind = "deleted"
	UpdateMerged       UpdateKind = "merged"
	UpdateUnclassified UpdateKind = "updated"
)

// RefUpdate is one reference changed by a pull.
type RefUpdate struct {
	Ref  string
	Kind UpdateKind
	Old  string
	New  string
}

// PullSummary lists the references a pull changed. It is empty when the
// pull brought nothing new.
type PullSummary struct {
	Updates []RefUpdate
}

// Changed reports whether the pull updated anything.
func (s PullSummary) Changed() bool { return len(s.Updates) > 0 }

// PushRef is one line of `git push --porcelain` output.
type PushRef struct {
	Flag    byte // ' ' fast-forward, '+' forced, '-' deleted, '*' new, '!' rejected, '=' up to date
	From    string
	To      string
	Summary string
}

// Failed reports whether the remote rejected the ref or the push errored.
func (p PushRef) Failed() bool { return p.Flag == '!' }

// PushSummary lists the per-ref results of a push.
type PushSummary struct {
	Refs []PushRef
}

// Failed returns the refs that were rejected or errored.
func (s PushSummary) Failed() []PushRef {
	return lo.Filter(s.Refs, func(p PushRef, _ int) bool { return p.Failed() })
}

// Fetch updates the remote-tracking refs of the configured remote without
// touching the working tree or local branches.
func (r *Repo) Fetch() error {
	if _, err := r.git("fetch", "--quiet", r.remote); err != nil {
		return classify(err)
	}
	return nil
}

// Pull fetches the configured branch and merges it into the current branch.
// Refusals to integrate wrap ErrMergeConflict and transport failures wrap
// ErrNetwork.
func (r *Repo) Pull() (PullSummary, error) {
	before, err := r.snapshotRefs()
	if err != nil {
		return PullSummary{}, err
	}
	args := []string{"pull", "--no-rebase", "--no-edit", r.remote, r.branch}
	stdout, stderr, err := r.gitRaw(args...)
	if err != nil {
		return PullSummary{}, classify(newCommandError(args, stdout, stderr, err))
	}
	after, err := r.snapshotRefs()
	if err != nil {
		return PullSummary{}, err
	}
	summary, err := r.diffRefs(before, after)
	if err != nil {
		return PullSummary{}, err
	}
	r.logger.Info("pulled", zap.Int("updated_refs", len(summary.Updates)))
	return summary, nil
}

// MergeAbort abandons a half-finished merge left by a failed pull.
func (r *Repo) MergeAbort() error {
	_, err := r.git("merge", "--abort")
	return err
}

// Push sends the current branch to the configured branch on the remote.
// Per-ref results are always returned when git reported them; any rejected
// ref makes the error wrap ErrPushRejected.
func (r *Repo) Push() (PushSummary, error) {
	if err := r.Open(); err != nil {
		return PushSummary{}, err
	}
	args := []string{"push", "--porcelain", r.remote, "HEAD:refs/heads/" + r.branch}
	stdout, stderr, err := r.gitRaw(args...)
	summary := parsePushPorcelain(stdout)
	if failed := summary.Failed(); len(failed) > 0 {
		details := lo.Map(failed, func(p PushRef, _ int) string {
			return fmt.Sprintf("%s: %s", p.To, p.Summary)
		})
		return summary, fmt.Errorf("%w: %s", ErrPushRejected, strings.Join(details, "; "))
	}
	if err != nil {
		return summary, classify(newCommandError(args, stdout, stderr, err))
	}
	r.logger.Info("pushed", zap.String("remote", r.remote), zap.String("branch", r.branch))
	return summary, nil
}

// parsePushPorcelain reads the tab-separated ref lines of
// `git push --porcelain`, ignoring the "To <url>" and "Done" lines.
func parsePushPorcelain(out string) PushSummary {
	var summary PushSummary
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 3 || len(fields[0]) != 1 {
			continue
		}
		from, to, _ := strings.Cut(fields[1], ":")
		summary.Refs = append(summary.Refs, PushRef{
			Flag:    fields[0][0],
			From:    from,
			To:      to,
			Summary: strings.TrimSpace(fields[2]),
		})
	}
	return summary
}

// snapshotRefs maps local and remote-tracking branch names to their hashes.
func (r *Repo) snapshotRefs() (map[string]string, error) {
	repo, err := r.repository()
	if err != nil {
		return nil, err
	}
	iter, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	refs := make(map[string]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if ref.Name().IsBranch() || ref.Name().IsRemote() {
			refs[ref.Name().String()] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return refs, nil
}

func (r *Repo) diffRefs(before, after map[string]string) (PullSummary, error) {
	repo, err := r.repository()
	if err != nil {
		return PullSummary{}, err
	}
	names := lo.Uniq(append(lo.Keys(before), lo.Keys(after)...))
	sort.Strings(names)

	var summary PullSummary
	for _, name := range names {
		old, newHash := before[name], after[name]
		if old == newHash {
			continue
		}
		summary.Updates = append(summary.Updates, RefUpdate{
			Ref:  name,
			Kind: classifyUpdate(repo, name, old, newHash),
			Old:  old,
			New:  newHash,
		})
	}
	return summary, nil
}

func classifyUpdate(repo *gogit.Repository, name, old, newHash string) UpdateKind {
	switch {
	case old == "":
		return UpdateNew
	case newHash == "":
		return UpdateDeleted
	}
	oldCommit, err := commitObject(repo, old)
	if err != nil {
		return UpdateUnclassified
	}
	newCommit, err := commitObject(repo, newHash)
	if err != nil {
		return UpdateUnclassified
	}
	if plumbing.ReferenceName(name).IsBranch() && newCommit.NumParents() > 1 {
		for _, parent := range newCommit.ParentHashes {
			if parent.String() == old {
				return UpdateMerged
			}
		}
	}
	ok, err := oldCommit.IsAncestor(newCommit)
	if err != nil {
		return UpdateUnclassified
	}
	if ok {
		return UpdateFastForward
	}
	return UpdateForced
}
