package sync

import (
	"time"

	"github.com/agrahamlincoln/cogit/pkg/git"
)

// GitOps defines the repository operations the coordinator drives.
// *git.Repo implements it; tests substitute a recording mock.
type GitOps interface {
	Fetch() error
	IsDirty() (bool, error)
	CommitAll(message string) (git.CommitResult, error)
	Pull() (git.PullSummary, error)
	MergeAbort() error
	Push() (git.PushSummary, error)
	StashSave(label string) (git.StashID, error)
	StashPop(id git.StashID) error
	CurrentBranchCommit() (string, error)
	TrackingBranchCommit() (string, bool, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	MergeBase(a, b string) ([]string, error)
	LastRemoteCommitTimestamp() (time.Time, bool)
}

var _ GitOps = (*git.Repo)(nil)
