package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/config"
	"github.com/agrahamlincoln/cogit/internal/journal"
)

// historyWindow bounds how many journal entries are scanned before
// filtering by vault.
const historyWindow = 1000

// HistoryCmd shows recent journal entries.
type HistoryCmd struct {
	Limit int  `name:"limit" short:"n" help:"Number of entries to show." default:"10"`
	All   bool `name:"all" help:"Include entries for every vault, not only the configured one."`
}

// Run executes the history command.
func (c *HistoryCmd) Run(globals *CLI, logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	globals.applyFlags(&cfg)

	j, err := journal.New(cfg.VaultPath)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Recent(historyWindow)
	if err != nil {
		return err
	}
	if !c.All && cfg.VaultPath != "" {
		entries = lo.Filter(entries, func(e journal.Entry, _ int) bool {
			return e.Vault == cfg.VaultPath
		})
	}
	if c.Limit > 0 && len(entries) > c.Limit {
		entries = entries[len(entries)-c.Limit:]
	}
	logger.Debug("history", zap.Int("entries", len(entries)))

	if len(entries) == 0 {
		fmt.Println("No activity recorded this month.")
		return nil
	}
	for _, e := range entries {
		renderEntry(os.Stdout, e)
	}
	return nil
}

// renderEntry prints one journal entry on a single line.
func renderEntry(w io.Writer, e journal.Entry) {
	dim := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	stamp := dim.Sprint(e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	switch {
	case e.Command != nil:
		line := "cogit " + e.Command.Name
		if len(e.Command.Flags) > 0 {
			line += " " + strings.Join(e.Command.Flags, " ")
		}
		_, _ = fmt.Fprintf(w, "%s  %s\n", stamp, line)
	case e.Operation != nil:
		op := e.Operation
		result := green.Sprint("ok")
		if !op.Success {
			result = red.Sprint("failed")
		}
		_, _ = fmt.Fprintf(w, "%s    %s %s (%dms)\n", stamp, op.Name, result, op.DurationMs)
		for _, step := range op.Steps {
			_, _ = fmt.Fprintf(w, "      %s\n", step)
		}
		if op.Error != "" {
			_, _ = fmt.Fprintf(w, "      %s\n", red.Sprint(firstLine(op.Error)))
		}
	case e.Status != nil:
		_, _ = fmt.Fprintf(w, "%s    status %s: %s\n", stamp, e.Status.State, e.Status.Message)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
