/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/

// Package watch re-runs anticipation cycles when the snapshot file changes.
package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the file must be quiet before a change fires.
const DefaultDelay = 500 * time.Millisecond

// ChangeFunc is called once per debounced change.
type ChangeFunc func(ctx context.Context) error

// Config configures a Watcher.
type Config struct {
	// Path is the file to watch.
	Path     string
	Delay    time.Duration
	OnChange ChangeFunc
	Logger   *slog.Logger
}

// Watcher watches one file. Its parent directory is watched so that
// editors which replace the file on save are still seen.
type Watcher struct {
	path     string
	onChange ChangeFunc
	logger   *slog.Logger

	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	hashes    *hashTracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change handler is required")
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:     abs,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
		watcher:  fw,
		hashes:   newHashTracker(),
	}
	w.debouncer = NewDebouncer(cfg.Delay, w.fire)
	return w, nil
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.cancel()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	// Seed the hash so a touch without edits does not fire.
	w.hashes.changed(w.path)

	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	_ = w.watcher.Close()
	w.debouncer.Stop()
	w.wg.Wait()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Replaced on save; the following Create carries the new content.
		w.hashes.remove(w.path)
		return
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if !w.hashes.changed(w.path) {
			return
		}
		w.debouncer.Trigger()
	}
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil {
		return
	}
	w.logger.Info("snapshot changed", "path", w.path)
	if err := w.onChange(w.ctx); err != nil {
		w.logger.Warn("change handler failed", "path", w.path, "error", err)
	}
}

// Debouncer collapses bursts of triggers into one call after a quiet period.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	fn      func()
	stopped bool
}

// NewDebouncer creates a debouncer calling fn after delay without triggers.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// hashTracker remembers file content hashes to skip no-op writes.
type hashTracker struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newHashTracker() *hashTracker {
	return &hashTracker{hashes: make(map[string]string)}
}

// changed reports whether path differs from the last seen content.
// Unreadable files count as changed.
func (t *hashTracker) changed(path string) bool {
	hash, err := fileHash(path)
	if err != nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	old, ok := t.hashes[path]
	t.hashes[path] = hash
	return !ok || old != hash
}

func (t *hashTracker) remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, path)
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
