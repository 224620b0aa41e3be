package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/agrahamlincoln/cogit/internal/debounce"
	"github.com/agrahamlincoln/cogit/internal/session"
)

// WatchCmd autosaves the vault while it is being edited.
type WatchCmd struct {
	Delay time.Duration `name:"delay" help:"Quiet period before an autosave commit (default from config, 30s)."`
	Push  bool          `name:"push" help:"Push after each autosave commit."`
}

// Run executes the watch command.
func (c *WatchCmd) Run(globals *CLI, logger *zap.Logger) error {
	var flags []string
	if c.Delay > 0 {
		flags = append(flags, fmt.Sprintf("--delay=%s", c.Delay))
	}
	if c.Push {
		flags = append(flags, "--push")
	}

	v, err := openVault(globals, logger, "watch", flags...)
	if err != nil {
		return err
	}
	defer v.Close()

	delay := v.cfg.Watch.Delay
	if c.Delay > 0 {
		delay = c.Delay
	}
	push := v.cfg.Watch.Push || c.Push

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	dirs, err := watchDirs(v.cfg.VaultPath)
	if err != nil {
		return errors.Join(err, fsw.Close())
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, errors.Join(err, fsw.Close()))
		}
	}
	logger.Debug("watching vault", zap.Int("dirs", len(dirs)), zap.Duration("delay", delay))

	if err := v.commit(session.StartMessage(time.Now())); err != nil {
		return errors.Join(err, fsw.Close())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bold := color.New(color.Bold)
	fmt.Printf("%s (autosave after %s of quiet, Ctrl-C to stop)\n", bold.Sprintf("Watching %s", v.cfg.VaultPath), delay)

	w := &watchSession{vault: v, fsw: fsw, push: push, due: make(chan struct{}, 1)}
	w.debouncer = debounce.New(delay, w.schedule)
	w.loop(ctx)

	w.debouncer.Stop()
	if err := fsw.Close(); err != nil {
		logger.Debug("closing watcher", zap.Error(err))
	}

	fmt.Println()
	if err := v.commit(session.EndMessage(time.Now())); err != nil {
		return err
	}
	if push {
		w.pushChanges()
	}
	return nil
}

// watchSession owns the vault for the duration of a watch. Autosaves run on
// the loop goroutine; the debouncer only signals that one is due.
type watchSession struct {
	*vault
	fsw       *fsnotify.Watcher
	debouncer *debounce.Debouncer
	push      bool
	due       chan struct{}
}

// schedule is the debouncer callback.
func (w *watchSession) schedule() {
	select {
	case w.due <- struct{}{}:
	default:
	}
}

func (w *watchSession) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", zap.Error(err))
		case <-w.due:
			w.autosave()
		}
	}
}

func (w *watchSession) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if shouldIgnore(w.cfg.VaultPath, ev.Name) {
		return
	}
	w.logger.Debug("fsnotify event", zap.Stringer("op", ev.Op), zap.String("path", ev.Name))

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addDirs(ev.Name)
		}
	}
	w.debouncer.Trigger()
}

// addDirs starts watching a directory created after the watch began,
// together with anything already inside it.
func (w *watchSession) addDirs(root string) {
	dirs, err := watchDirs(root)
	if err != nil {
		w.logger.Warn("scanning new directory", zap.String("path", root), zap.Error(err))
		return
	}
	for _, dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("watching new directory", zap.String("path", dir), zap.Error(err))
		}
	}
}

func (w *watchSession) autosave() {
	msg, err := w.autosaveMessage()
	if err != nil {
		w.logger.Error("autosave", zap.Error(err))
		return
	}
	dim := color.New(color.FgHiBlack)
	fmt.Print(dim.Sprintf("[%s] ", time.Now().Format("15:04:05")))
	if err := w.commit(msg); err != nil {
		fmt.Println(color.New(color.FgRed).Sprint(err))
		return
	}
	if w.push {
		w.pushChanges()
	}
}

func (w *watchSession) pushChanges() {
	start := time.Now()
	out, err := w.coord.Push()
	_ = w.journal.LogOperation("push", out.Messages(), err, time.Since(start))
	renderOutcome(os.Stdout, out, err)
}

// watchDirs lists root and every directory below it, skipping git metadata.
func watchDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return dirs, nil
}

// shouldIgnore reports whether a change to name never warrants an autosave:
// git metadata and editor scratch files.
func shouldIgnore(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".git" {
			return true
		}
	}
	base := filepath.Base(name)
	if strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".swp", ".swx", ".tmp", ".lock":
		return true
	}
	return false
}
