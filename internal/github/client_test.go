package github

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitHubRemote(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"ssh with .git suffix", "git@github.com:alice/notes.git", "alice", "notes", true},
		{"ssh without .git suffix", "git@github.com:alice/notes", "alice", "notes", true},
		{"ssh url form", "ssh://git@github.com/alice/notes.git", "alice", "notes", true},
		{"https with .git suffix", "https://github.com/alice/notes.git", "alice", "notes", true},
		{"https without .git suffix", "https://github.com/alice/notes", "alice", "notes", true},
		{"http url", "http://github.com/owner/repo.git", "owner", "repo", true},
		{"extra path segments", "https://github.com/owner/repo/tree/main", "owner", "repo", true},
		{"non-github ssh", "git@gitlab.com:owner/repo.git", "", "", false},
		{"non-github https", "https://gitlab.com/owner/repo.git", "", "", false},
		{"local path", "/srv/git/vault.git", "", "", false},
		{"github url with no repo", "https://github.com/owner", "", "", false},
		{"empty string", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := ParseGitHubRemote(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

type fakeREST struct {
	path string
	body string
	err  error
}

func (f *fakeREST) Get(path string, resp interface{}) error {
	f.path = path
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.body), resp)
}

func TestRepoInfo(t *testing.T) {
	fake := &fakeREST{body: `{
		"full_name": "alice/notes",
		"default_branch": "main",
		"visibility": "private",
		"archived": false,
		"pushed_at": "2025-06-15T09:30:00Z",
		"html_url": "https://github.com/alice/notes"
	}`}
	c := &Client{rest: fake}

	info, err := c.RepoInfo("alice", "notes")
	require.NoError(t, err)
	assert.Equal(t, "repos/alice/notes", fake.path)
	assert.Equal(t, "alice/notes", info.FullName)
	assert.Equal(t, "main", info.DefaultBranch)
	assert.Equal(t, "private", info.Visibility)
	assert.False(t, info.Archived)
	assert.True(t, info.PushedAt.Equal(time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)))
}

func TestRepoInfoErrors(t *testing.T) {
	_, err := (&Client{}).RepoInfo("alice", "notes")
	assert.ErrorIs(t, err, ErrNoClient)

	boom := errors.New("HTTP 404: Not Found")
	_, err = (&Client{rest: &fakeREST{err: boom}}).RepoInfo("alice", "notes")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "alice/notes")
}
