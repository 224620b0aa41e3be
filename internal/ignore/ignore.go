// Package ignore keeps editor scratch files out of the vault's history by
// maintaining a marked block in the vault's .gitignore.
package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Marker opens the block cogit manages.
const Marker = "# Cogit managed ignores"

// Patterns are the entries written under Marker.
var Patterns = []string{
	".obsidian/workspace*",
	".obsidian/cache",
	".obsidian/plugins/*/data.json",
}

// Ensure appends the managed block to <vault>/.gitignore unless the marker is
// already present, creating the file if needed. It reports whether the file
// was changed.
func Ensure(vault string) (bool, error) {
	path := filepath.Join(vault, ".gitignore")

	// #nosec G304 - path is the vault's own .gitignore
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if strings.Contains(string(current), Marker) {
		return false, nil
	}

	var b strings.Builder
	if len(current) > 0 {
		if !strings.HasSuffix(string(current), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(Marker + "\n")
	for _, p := range Patterns {
		b.WriteString(p + "\n")
	}

	// #nosec G302 G304 - .gitignore is committed and must stay world-readable
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", path, err)
	}
	return true, nil
}
