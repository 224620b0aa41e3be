// Package main provides the cogit CLI, which keeps a note vault in sync with
// its git remote.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI defines the top-level command structure for cogit.
type CLI struct {
	Verbose bool   `name:"verbose" short:"v" help:"Verbose output."`
	Vault   string `name:"vault" help:"Vault directory (overrides config and COGIT_VAULT_PATH)." type:"path"`
	Branch  string `name:"branch" short:"b" help:"Branch to sync (overrides config and COGIT_BRANCH)."`
	Remote  string `name:"remote" help:"Remote to sync with (overrides config and COGIT_REMOTE)."`

	Status     StatusCmd  `cmd:"" default:"1" help:"Show how the vault relates to its remote."`
	Pull       PullCmd    `cmd:"" help:"Pull remote changes into the vault."`
	Push       PushCmd    `cmd:"" help:"Commit and push, pulling first when the remote has moved."`
	Commit     CommitCmd  `cmd:"" help:"Commit every change in the vault."`
	Setup      SetupCmd   `cmd:"" help:"Configure the vault interactively."`
	Watch      WatchCmd   `cmd:"" help:"Autosave the vault while it is being edited."`
	RemoteInfo RemoteCmd  `cmd:"" name:"remote" help:"Show the vault's remote and its GitHub metadata."`
	History    HistoryCmd `cmd:"" help:"Show recent cogit activity."`
	Version    VersionCmd `cmd:"" help:"Show version information."`
}

// flags lists the global flags that were set, for the journal.
func (c *CLI) flags() []string {
	var flags []string
	if c.Verbose {
		flags = append(flags, "--verbose")
	}
	if c.Vault != "" {
		flags = append(flags, "--vault")
	}
	if c.Branch != "" {
		flags = append(flags, "--branch="+c.Branch)
	}
	if c.Remote != "" {
		flags = append(flags, "--remote="+c.Remote)
	}
	return flags
}

// newLogger builds the diagnostic logger. It writes to stderr so command
// output on stdout stays clean.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !verbose
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run() error {
	fmt.Printf("cogit %s (commit: %s, built: %s)\n", version, commit, date)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("cogit"),
		kong.Description(`cogit keeps a note vault in sync with its git remote.

Status checks classify the vault against its remote; push commits local
work and, when the remote has moved, stashes, pulls and restores before
pushing so nothing is lost.`),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)},
	)

	logger := newLogger(cli.Verbose)
	err := ctx.Run(&cli, logger)
	_ = logger.Sync()
	ctx.FatalIfErrorf(err)
	// Explicitly exit with 0 on success so tests can verify exit behavior.
	os.Exit(0)
}
