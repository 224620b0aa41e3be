package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/config"
	"github.com/agrahamlincoln/cogit/internal/ignore"
	"github.com/agrahamlincoln/cogit/internal/journal"
	"github.com/agrahamlincoln/cogit/internal/sync"
	"github.com/agrahamlincoln/cogit/pkg/git"
)

// vault bundles everything a command needs to operate on the configured
// vault.
type vault struct {
	cfg     config.Config
	repo    *git.Repo
	coord   *sync.Coordinator
	journal *journal.Journal
	logger  *zap.Logger
}

// applyFlags layers the global flag overrides on top of cfg.
func (c *CLI) applyFlags(cfg *config.Config) {
	if c.Vault != "" {
		cfg.VaultPath = c.Vault
	}
	if c.Branch != "" {
		cfg.Branch = c.Branch
	}
	if c.Remote != "" {
		cfg.Remote = c.Remote
	}
}

// interactive reports whether stdin and stdout are both terminals.
var interactive = func() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// loadConfig returns the layered configuration. When no vault is configured
// and the session is interactive, the setup form runs first.
func loadConfig(globals *CLI, logger *zap.Logger) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	globals.applyFlags(&cfg)

	err = cfg.Validate()
	if errors.Is(err, config.ErrNotConfigured) {
		if !interactive() {
			return cfg, fmt.Errorf("%w: run 'cogit setup' or set COGIT_VAULT_PATH", err)
		}
		fmt.Println("No vault configured yet.")
		if cfg, err = runSetup(cfg, logger); err != nil {
			return cfg, err
		}
		globals.applyFlags(&cfg)
		err = cfg.Validate()
	}
	if err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openVault loads the configuration, validates the repository and records
// the command in the journal. Callers must Close the result.
func openVault(globals *CLI, logger *zap.Logger, command string, flags ...string) (*vault, error) {
	cfg, err := loadConfig(globals, logger)
	if err != nil {
		return nil, err
	}

	repo := git.New(cfg.VaultPath, git.Options{
		Remote: cfg.Remote,
		Branch: cfg.Branch,
		Logger: logger.Named("git"),
	})
	if err := repo.Open(); err != nil {
		return nil, err
	}

	changed, err := ignore.Ensure(cfg.VaultPath)
	if err != nil {
		logger.Warn("could not update .gitignore", zap.Error(err))
	} else if changed {
		logger.Info("added managed ignore rules", zap.String("vault", cfg.VaultPath))
	}

	j := journal.NewOrNil(cfg.VaultPath, logger)
	_ = j.LogCommand(command, append(globals.flags(), flags...))

	return &vault{
		cfg:     cfg,
		repo:    repo,
		coord:   sync.New(repo, sync.Options{Logger: logger.Named("sync")}),
		journal: j,
		logger:  logger,
	}, nil
}

// Close releases the journal.
func (v *vault) Close() {
	if err := v.journal.Close(); err != nil {
		v.logger.Debug("closing journal", zap.Error(err))
	}
}
