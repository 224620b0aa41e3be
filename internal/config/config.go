// Package config handles loading, validating and saving cogit configuration
// from the config file, environment variables, and CLI flag overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// ErrNotConfigured is returned by Validate when no vault path is set.
var ErrNotConfigured = errors.New("no vault configured")

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Delay time.Duration `yaml:"delay"` // quiet period before an autosave commit
	Push  bool          `yaml:"push"`  // push after each autosave commit
}

// Config holds all cogit configuration.
type Config struct {
	VaultPath   string      `yaml:"vault_path"`
	Branch      string      `yaml:"branch"`
	Remote      string      `yaml:"remote"`
	GithubToken string      `yaml:"github_token,omitempty"`
	Watch       WatchConfig `yaml:"watch"`
}

// Defaults returns a Config with default values. The vault path has no
// default; it comes from the file, the environment or a flag.
func Defaults() Config {
	return Config{
		Branch: "main",
		Remote: "origin",
		Watch: WatchConfig{
			Delay: 30 * time.Second,
		},
	}
}

// Load reads configuration from the config file and environment variables.
// Values are layered: defaults < config file < environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if err := loadFile(&cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)

	return cfg, nil
}

// LoadSaved reads only the config file over the defaults, without
// environment overrides. Use it as the base for values written back with Save.
func LoadSaved() (Config, error) {
	cfg := Defaults()
	err := loadFile(&cfg)
	return cfg, err
}

// Validate checks a fully layered configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.VaultPath) == "" {
		return ErrNotConfigured
	}
	if c.Branch == "" {
		return errors.New("branch must not be empty")
	}
	if c.Remote == "" {
		return errors.New("remote must not be empty")
	}
	if c.Watch.Delay <= 0 {
		return fmt.Errorf("invalid watch delay %s (must be positive)", c.Watch.Delay)
	}
	return nil
}

// Path returns the path to the config file.
func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cogit", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cogit", "config.yaml")
}

// Exists reports whether a config file is present.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

func loadFile(cfg *Config) error {
	path := filepath.Clean(Path())
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no config file is fine
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.VaultPath = ExpandHome(cfg.VaultPath)
	return nil
}

// Save writes cfg to the config file, creating its directory if needed.
// The GitHub token is not written; it stays in the environment.
func Save(cfg Config) error {
	path := filepath.Clean(Path())
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	cfg.GithubToken = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COGIT_VAULT_PATH"); v != "" {
		cfg.VaultPath = ExpandHome(v)
	}
	if v := os.Getenv("COGIT_BRANCH"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("COGIT_REMOTE"); v != "" {
		cfg.Remote = v
	}
	if v := os.Getenv("COGIT_GITHUB_TOKEN"); v != "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" && cfg.GithubToken == "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("GH_TOKEN"); v != "" && cfg.GithubToken == "" {
		cfg.GithubToken = v
	}
	if v := os.Getenv("COGIT_WATCH_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Watch.Delay = d
		}
	}
	if v := os.Getenv("COGIT_WATCH_PUSH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Watch.Push = b
		}
	}
}

// ExpandHome replaces a leading ~/ in path with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
