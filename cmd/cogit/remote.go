package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/github"
)

// RemoteCmd shows the vault's remote and, for GitHub remotes, repository
// metadata.
type RemoteCmd struct{}

// Run executes the remote command.
func (c *RemoteCmd) Run(globals *CLI, logger *zap.Logger) error {
	v, err := openVault(globals, logger, "remote")
	if err != nil {
		return err
	}
	defer v.Close()

	url, err := v.repo.RemoteURL()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.New(color.Bold).Sprintf("%s:", v.cfg.Remote), url)

	owner, name, ok := github.ParseGitHubRemote(url)
	if !ok {
		logger.Debug("not a GitHub remote", zap.String("url", url))
		return nil
	}

	client := github.NewClient(v.cfg.GithubToken, logger.Named("github"))
	info, err := client.RepoInfo(owner, name)
	if err != nil {
		return fmt.Errorf("fetching GitHub metadata: %w", err)
	}
	renderRepoInfo(os.Stdout, info, v.cfg.Branch)
	return nil
}

// renderRepoInfo prints GitHub metadata and warns about settings that will
// break syncing.
func renderRepoInfo(w io.Writer, info github.RepoInfo, branch string) {
	dim := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	_, _ = fmt.Fprintf(w, "  Repository:     %s\n", info.FullName)
	_, _ = fmt.Fprintf(w, "  Visibility:     %s\n", info.Visibility)
	_, _ = fmt.Fprintf(w, "  Default branch: %s\n", info.DefaultBranch)
	_, _ = fmt.Fprintf(w, "  Last push:      %s\n", dim.Sprint(formatAge(info.PushedAt)))
	if info.HTMLURL != "" {
		_, _ = fmt.Fprintf(w, "  URL:            %s\n", info.HTMLURL)
	}

	if info.Archived {
		_, _ = fmt.Fprintf(w, "%s repository is archived; pushes will be rejected\n", red.Sprint("[warn]"))
	}
	if info.DefaultBranch != "" && info.DefaultBranch != branch {
		_, _ = fmt.Fprintf(w, "%s syncing branch %q but the default branch is %q\n",
			yellow.Sprint("[warn]"), branch, info.DefaultBranch)
	}
}
