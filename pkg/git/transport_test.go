package git_test

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrahamlincoln/cogit/pkg/git"
	"github.com/agrahamlincoln/cogit/test/helpers"
)

func updateFor(summary git.PullSummary, ref string) (git.RefUpdate, bool) {
	return lo.Find(summary.Updates, func(u git.RefUpdate) bool { return u.Ref == ref })
}

func TestPush(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	r := newRepo(t, pair.Local.Path)

	head := pair.Local.CommitFile("today.md", "today\n", "daily note")
	summary, err := r.Push()
	require.NoError(t, err)
	require.Len(t, summary.Refs, 1)
	assert.Equal(t, "refs/heads/main", summary.Refs[0].To)
	assert.Empty(t, summary.Failed())
	assert.Equal(t, head, pair.Local.Git("ls-remote", "origin", "refs/heads/main")[:40])
}

func TestPushRejected(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	pair.Other.CommitFile("other.md", "other\n", "from the other machine")
	pair.Other.Push()

	pair.Local.CommitFile("local.md", "local\n", "from this machine")
	summary, err := newRepo(t, pair.Local.Path).Push()
	require.ErrorIs(t, err, git.ErrPushRejected)

	failed := summary.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "refs/heads/main", failed[0].To)
	assert.Contains(t, failed[0].Summary, "rejected")
}

func TestPushNetworkError(t *testing.T) {
	repo := helpers.NewTestRepo(t, "offline")
	repo.AddRemote("origin", filepath.Join(t.TempDir(), "missing.git"))

	_, err := newRepo(t, repo.Path).Push()
	assert.ErrorIs(t, err, git.ErrNetwork)
	assert.NotErrorIs(t, err, git.ErrPushRejected)
}

func TestFetch(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	remote := pair.Other.CommitFile("b.md", "b\n", "remote change")
	pair.Other.Push()

	r := newRepo(t, pair.Local.Path)
	require.NoError(t, r.Fetch())

	tracking, ok, err := r.TrackingBranchCommit()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, remote, tracking)

	dirty, err := r.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty, "fetch leaves the working tree alone")
}

func TestFetchNetworkError(t *testing.T) {
	repo := helpers.NewTestRepo(t, "offline")
	repo.AddRemote("origin", filepath.Join(t.TempDir(), "missing.git"))
	assert.ErrorIs(t, newRepo(t, repo.Path).Fetch(), git.ErrNetwork)
}

func TestPullFastForward(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	old := pair.Local.Head()
	remote := pair.Other.CommitFile("b.md", "b\n", "remote change")
	pair.Other.Push()

	summary, err := newRepo(t, pair.Local.Path).Pull()
	require.NoError(t, err)
	require.True(t, summary.Changed())

	update, ok := updateFor(summary, "refs/heads/main")
	require.True(t, ok)
	assert.Equal(t, git.UpdateFastForward, update.Kind)
	assert.Equal(t, old, update.Old)
	assert.Equal(t, remote, update.New)
	assert.Equal(t, "b\n", pair.Local.ReadFile("b.md"))
}

func TestPullNothingNew(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	summary, err := newRepo(t, pair.Local.Path).Pull()
	require.NoError(t, err)
	assert.False(t, summary.Changed())
}

func TestPullMerge(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	pair.Other.CommitFile("b.md", "b\n", "remote change")
	pair.Other.Push()
	pair.Local.CommitFile("a.md", "a\n", "local change")

	summary, err := newRepo(t, pair.Local.Path).Pull()
	require.NoError(t, err)

	update, ok := updateFor(summary, "refs/heads/main")
	require.True(t, ok)
	assert.Equal(t, git.UpdateMerged, update.Kind)
	assert.Equal(t, "a\n", pair.Local.ReadFile("a.md"))
	assert.Equal(t, "b\n", pair.Local.ReadFile("b.md"))
}

func TestPullConflict(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	pair.Other.CommitFile("README.md", "# Remote\n", "remote edit")
	pair.Other.Push()
	before := pair.Local.CommitFile("README.md", "# Local\n", "local edit")

	r := newRepo(t, pair.Local.Path)
	_, err := r.Pull()
	require.ErrorIs(t, err, git.ErrMergeConflict)

	require.NoError(t, r.MergeAbort())
	assert.Equal(t, before, pair.Local.Head())
	assert.Equal(t, "# Local\n", pair.Local.ReadFile("README.md"))
}

func TestPullOverDirtyTreeIsRefused(t *testing.T) {
	pair := helpers.NewRemotePair(t)
	pair.Other.CommitFile("README.md", "# Remote\n", "remote edit")
	pair.Other.Push()
	pair.Local.WriteFile("README.md", "# Uncommitted\n")

	_, err := newRepo(t, pair.Local.Path).Pull()
	require.ErrorIs(t, err, git.ErrMergeConflict)
	assert.Equal(t, "# Uncommitted\n", pair.Local.ReadFile("README.md"))
}

func TestPullNetworkError(t *testing.T) {
	repo := helpers.NewTestRepo(t, "offline")
	repo.AddRemote("origin", filepath.Join(t.TempDir(), "missing.git"))

	_, err := newRepo(t, repo.Path).Pull()
	assert.ErrorIs(t, err, git.ErrNetwork)
}
