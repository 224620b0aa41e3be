package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/session"
	"github.com/agrahamlincoln/cogit/pkg/git"
)

// PullCmd pulls remote changes into the vault.
type PullCmd struct{}

// Run executes the pull command.
func (c *PullCmd) Run(globals *CLI, logger *zap.Logger) error {
	v, err := openVault(globals, logger, "pull")
	if err != nil {
		return err
	}
	defer v.Close()

	fmt.Printf("Pulling %s/%s into %s...\n", v.cfg.Remote, v.cfg.Branch, v.cfg.VaultPath)
	start := time.Now()
	out, err := v.coord.Pull()
	_ = v.journal.LogOperation("pull", out.Messages(), err, time.Since(start))
	renderOutcome(os.Stdout, out, err)
	if err != nil {
		return err
	}

	fmt.Println()
	v.showStatus()
	return nil
}

// PushCmd commits pending work and pushes it.
type PushCmd struct {
	Message  string `name:"message" short:"m" help:"Commit message (default: session end marker)."`
	NoCommit bool   `name:"no-commit" help:"Push existing commits without committing pending changes."`
}

// Run executes the push command.
func (c *PushCmd) Run(globals *CLI, logger *zap.Logger) error {
	var flags []string
	if c.Message != "" {
		flags = append(flags, "--message")
	}
	if c.NoCommit {
		flags = append(flags, "--no-commit")
	}

	v, err := openVault(globals, logger, "push", flags...)
	if err != nil {
		return err
	}
	defer v.Close()

	if !c.NoCommit {
		msg := c.Message
		if msg == "" {
			msg = session.EndMessage(time.Now())
		}
		if err := v.commit(msg); err != nil {
			return err
		}
	}

	fmt.Printf("Pushing %s to %s...\n", v.cfg.Branch, v.cfg.Remote)
	start := time.Now()
	out, err := v.coord.Push()
	_ = v.journal.LogOperation("push", out.Messages(), err, time.Since(start))
	renderOutcome(os.Stdout, out, err)
	return err
}

// CommitCmd commits every change in the vault without pushing.
type CommitCmd struct {
	Message string `name:"message" short:"m" help:"Commit message (default: autosave message with the changed-file count)."`
}

// Run executes the commit command.
func (c *CommitCmd) Run(globals *CLI, logger *zap.Logger) error {
	var flags []string
	if c.Message != "" {
		flags = append(flags, "--message")
	}

	v, err := openVault(globals, logger, "commit", flags...)
	if err != nil {
		return err
	}
	defer v.Close()

	msg := c.Message
	if msg == "" {
		if msg, err = v.autosaveMessage(); err != nil {
			return err
		}
	}
	return v.commit(msg)
}

// autosaveMessage describes the vault's current changes.
func (v *vault) autosaveMessage() (string, error) {
	paths, err := v.repo.ChangedPaths()
	if err != nil {
		return "", fmt.Errorf("listing changes: %w", err)
	}
	return session.AutosaveMessage(len(paths), time.Now()), nil
}

// commit commits every change with msg, records it and prints the result.
func (v *vault) commit(msg string) error {
	start := time.Now()
	res, err := v.coord.CommitAll(msg)
	var steps []string
	if err == nil {
		steps = []string{describeCommit(res)}
	}
	_ = v.journal.LogOperation("commit", steps, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	fmt.Println(steps[0])
	return nil
}

// describeCommit renders a commit result for the user.
func describeCommit(res git.CommitResult) string {
	if res.NoOp {
		return "No changes to commit."
	}
	return fmt.Sprintf("Committed: %s - %s", res.Hash, res.Message)
}
