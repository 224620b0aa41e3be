// Package scanner discovers note vaults: git repositories carrying an
// .obsidian settings directory, found under a set of search roots.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/agrahamlincoln/cogit/pkg/git"
)

// DefaultMaxDepth is how many directory levels below a root are searched.
const DefaultMaxDepth = 2

// Options controls scanning behavior.
type Options struct {
	ExcludePatterns []string
	MaxDepth        int // default DefaultMaxDepth
}

// DefaultRoots returns the places vaults usually live under home.
func DefaultRoots(home string) []string {
	return []string{
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Obsidian"),
		home,
	}
}

// Scan discovers vaults under each root, in root order.
//
// The algorithm:
//  1. A root that is itself a vault is reported and not descended into.
//  2. Otherwise its children are examined, down to MaxDepth levels.
//  3. Hidden directories (starting with ".") are always skipped.
//  4. Symlink cycles and overlapping roots are detected via visited-path
//     tracking, so each vault is reported once.
//
// Missing roots are skipped.
func Scan(roots []string, opts Options) ([]string, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	visited := make(map[string]bool)
	var vaults []string

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := scan(root, 0, opts, visited, &vaults); err != nil {
			return nil, err
		}
	}
	return lo.Uniq(vaults), nil
}

func scan(dir string, depth int, opts Options, visited map[string]bool, vaults *[]string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolving symlink %s: %w", dir, err)
	}
	if visited[resolved] {
		return nil // cycle or already scanned
	}
	visited[resolved] = true

	if IsVault(dir) {
		*vaults = append(*vaults, dir)
		return nil
	}
	if depth >= opts.MaxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsPermission(err) {
			return nil
		}
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		if isExcluded(name, opts.ExcludePatterns) {
			continue
		}
		child := filepath.Join(dir, name)
		if info, err := os.Stat(child); err != nil || !info.IsDir() {
			continue
		}
		if err := scan(child, depth+1, opts, visited, vaults); err != nil {
			return err
		}
	}
	return nil
}

// IsVault reports whether dir is a git repository with Obsidian settings.
func IsVault(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".obsidian"))
	if err != nil || !info.IsDir() {
		return false
	}
	return git.New(dir, git.Options{}).Open() == nil
}

func isExcluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
