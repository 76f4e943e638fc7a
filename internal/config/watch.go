package config

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads a bootstrap config file on write, debouncing rapid
// successive writes (editors commonly emit several events per save).
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
}

// WatchFile starts watching path, invoking onReload with the freshly
// parsed Config after each settled write. Call Close to stop watching.
func WatchFile(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{path: path, watcher: fw, debounce: 250 * time.Millisecond, done: make(chan struct{})}

	go func() {
		var timer *time.Timer
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounce, func() {
					cfg, err := Load(path)
					if err != nil {
						slog.Warn("config: reload failed, keeping previous configuration", "path", path, "err", err)
						return
					}
					onReload(cfg)
				})
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				slog.Warn("config: watcher error", "err", err)
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
