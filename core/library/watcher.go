package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"melodex/logger"
	"melodex/model"
)

// watchDebounce coalesces bursts of filesystem events (a copy of an album
// touches every file once) into a single rescan.
const watchDebounce = 5 * time.Second

// Watcher observes the library directory tree and triggers a rescan after
// files are added, renamed or removed.
type Watcher struct {
	scanner *Scanner
	root    string
}

// NewWatcher creates a watcher over the scanner's library root.
func NewWatcher(scanner *Scanner, root string) *Watcher {
	return &Watcher{scanner: scanner, root: root}
}

// Start begins watching. It returns once the fsnotify watches are
// registered; event handling runs until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.addRecursive(fw, w.root); err != nil {
		fw.Close()
		return err
	}

	logger.Info("Watching library for changes", logger.String("path", w.root))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				logger.Warn("Failed to watch directory",
					logger.String("path", path),
					logger.ErrorField(err))
			}
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	resetDebounce := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(watchDebounce)
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// New directories need their own watch before their contents
			// produce events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(fw, event.Name)
				}
			}
			resetDebounce()

		case <-timerC:
			logger.Info("Library changed, rescanning", logger.String("path", w.root))
			report := w.scanner.Scan(ctx)
			if report.Status != model.ScanStatusSuccess {
				logger.Warn("Triggered rescan failed", logger.String("message", report.Message))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Error("Library watcher error", logger.ErrorField(err))

		case <-ctx.Done():
			return
		}
	}
}
