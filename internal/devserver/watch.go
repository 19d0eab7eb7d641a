package devserver

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"mvstories/internal/logging"
	"mvstories/internal/storyerr"
)

// watcher reports changes anywhere below a story folder.
type watcher struct {
	root   string
	fs     *fsnotify.Watcher
	logger *slog.Logger
}

func newWatcher(root string, logger *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrUnavailable, component, "watch", "create watcher", err)
	}
	w := &watcher{root: root, fs: fw, logger: logger}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, storyerr.Wrap(storyerr.ErrUnavailable, component, "watch", "watch folder", err).WithSubject(root)
	}
	return w, nil
}

// addTree watches dir and every directory below it. fsnotify is not
// recursive, so new directories are added as they appear.
func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// run calls rebuild once events have been quiet for debounce, until ctx is
// done.
func (w *watcher) run(ctx context.Context, debounce time.Duration, rebuild func()) {
	defer w.fs.Close()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch new directory failed", logging.String("path", event.Name), logging.Error(err))
					}
				}
			}
			w.logger.Debug("change detected", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true
		case <-timer.C:
			pending = false
			rebuild()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

func (w *watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if ignored(part) {
			return false
		}
	}
	return true
}

// ignored skips hidden entries (including the lock file) and editor
// backups.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
