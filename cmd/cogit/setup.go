package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/config"
	"github.com/agrahamlincoln/cogit/internal/ignore"
	"github.com/agrahamlincoln/cogit/internal/scanner"
	"github.com/agrahamlincoln/cogit/pkg/git"
)

const defaultVaultPath = "~/Documents/Obsidian Vault"

// SetupCmd configures the vault interactively.
type SetupCmd struct{}

// Run executes the setup command.
func (c *SetupCmd) Run(globals *CLI, logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	globals.applyFlags(&cfg)

	_, err = runSetup(cfg, logger)
	return err
}

// runSetup asks for the vault location and sync target, saves the answers
// and bootstraps the vault's ignore rules. cfg supplies the initial values.
func runSetup(cfg config.Config, logger *zap.Logger) (config.Config, error) {
	vaultPath := cfg.VaultPath
	if vaultPath == "" {
		chosen, err := chooseDiscoveredVault(logger)
		if err != nil {
			return cfg, err
		}
		vaultPath = chosen
	}
	if vaultPath == "" {
		vaultPath = defaultVaultPath
	}
	branch, remote := cfg.Branch, cfg.Remote

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vault directory").
				Description("A git repository holding your notes.").
				Value(&vaultPath).
				Validate(validateVaultPath),
			huh.NewInput().
				Title("Branch").
				Value(&branch).
				Validate(requireValue("branch")),
			huh.NewInput().
				Title("Remote").
				Value(&remote).
				Validate(requireValue("remote")),
		),
	)
	if err := form.Run(); err != nil {
		return cfg, fmt.Errorf("prompt failed: %w", err)
	}

	cfg.VaultPath = config.ExpandHome(strings.TrimSpace(vaultPath))
	cfg.Branch = strings.TrimSpace(branch)
	cfg.Remote = strings.TrimSpace(remote)

	if err := saveAnswers(cfg); err != nil {
		return cfg, err
	}
	logger.Debug("saved config", zap.String("path", config.Path()))

	if _, err := ignore.Ensure(cfg.VaultPath); err != nil {
		logger.Warn("could not update .gitignore", zap.Error(err))
	}

	green := color.New(color.FgGreen)
	fmt.Printf("%s Saved configuration to %s\n", green.Sprint("[ok]"), config.Path())
	return cfg, nil
}

// saveAnswers writes the fields the setup form asks for over the saved
// file. Environment and flag overrides in answers' other fields are not
// persisted.
func saveAnswers(answers config.Config) error {
	saved, err := config.LoadSaved()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	saved.VaultPath = answers.VaultPath
	saved.Branch = answers.Branch
	saved.Remote = answers.Remote
	return config.Save(saved)
}

// chooseDiscoveredVault offers the vaults found in the usual places. It
// returns "" when none were found or the user wants to type a path.
func chooseDiscoveredVault(logger *zap.Logger) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	vaults, err := scanner.Scan(scanner.DefaultRoots(home), scanner.Options{})
	if err != nil {
		logger.Debug("vault discovery failed", zap.Error(err))
		return "", nil
	}
	if len(vaults) == 0 {
		return "", nil
	}

	options := make([]huh.Option[string], 0, len(vaults)+1)
	for _, v := range vaults {
		options = append(options, huh.NewOption(v, v))
	}
	options = append(options, huh.NewOption("Enter another path", ""))

	var chosen string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Found these vaults").
				Options(options...).
				Value(&chosen),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return chosen, nil
}

// validateVaultPath accepts only existing git repositories.
func validateVaultPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("vault directory is required")
	}
	return git.New(config.ExpandHome(path), git.Options{}).Open()
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
