// Package github queries the GitHub API for metadata about the repository a
// vault is pushed to.
package github

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"go.uber.org/zap"
)

// ErrNoClient is returned when no REST client could be constructed.
var ErrNoClient = errors.New("no GitHub API client available")

// restGetter is the part of *api.RESTClient the client uses.
type restGetter interface {
	Get(path string, resp interface{}) error
}

// Client wraps GitHub API access.
type Client struct {
	rest restGetter
}

// NewClient creates a GitHub client. It attempts to use authentication from
// the gh CLI config, falling back to the provided token, falling back to
// unauthenticated access.
func NewClient(token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{}

	// Try default gh CLI authentication first.
	rest, err := api.DefaultRESTClient()
	if err == nil {
		logger.Debug("using gh CLI authentication")
		c.rest = rest
		return c
	}
	logger.Debug("gh CLI auth not available", zap.Error(err))

	if token != "" {
		rest, err = api.NewRESTClient(api.ClientOptions{AuthToken: token})
		if err == nil {
			logger.Debug("using explicit token authentication")
			c.rest = rest
			return c
		}
		logger.Debug("token auth failed", zap.Error(err))
	}

	// Unauthenticated -- private vaults will report not found.
	logger.Debug("using unauthenticated access (rate limits apply)")
	rest, err = api.NewRESTClient(api.ClientOptions{})
	if err != nil {
		logger.Warn("could not create REST client", zap.Error(err))
		return c
	}
	c.rest = rest
	return c
}

// RepoInfo is the metadata shown for a vault's GitHub remote.
type RepoInfo struct {
	FullName      string    `json:"full_name"`
	DefaultBranch string    `json:"default_branch"`
	Visibility    string    `json:"visibility"`
	Archived      bool      `json:"archived"`
	PushedAt      time.Time `json:"pushed_at"`
	HTMLURL       string    `json:"html_url"`
}

// RepoInfo fetches GET /repos/{owner}/{repo}.
func (c *Client) RepoInfo(owner, repo string) (RepoInfo, error) {
	if c.rest == nil {
		return RepoInfo{}, ErrNoClient
	}
	var info RepoInfo
	if err := c.rest.Get(fmt.Sprintf("repos/%s/%s", owner, repo), &info); err != nil {
		return RepoInfo{}, fmt.Errorf("querying %s/%s: %w", owner, repo, err)
	}
	return info, nil
}

// sshRemoteRe matches SSH-style GitHub remote URLs:
//
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
var sshRemoteRe = regexp.MustCompile(`^(?:ssh://)?git@github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseGitHubRemote extracts owner and repo from a GitHub remote URL.
// Supports both SSH (git@github.com:owner/repo.git) and HTTPS
// (https://github.com/owner/repo.git) formats.
func ParseGitHubRemote(url string) (owner, repo string, ok bool) {
	if m := sshRemoteRe.FindStringSubmatch(url); m != nil {
		return m[1], m[2], true
	}

	url = strings.TrimSuffix(url, ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/"} {
		if strings.HasPrefix(url, prefix) {
			rest := strings.TrimPrefix(url, prefix)
			parts := strings.SplitN(rest, "/", 3)
			if len(parts) >= 2 && parts[0] != "" && parts[1] != "" {
				return parts[0], parts[1], true
			}
		}
	}

	return "", "", false
}
