package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RyanBlaney/sonido-accompany/logging"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 300 * time.Millisecond

// watchPaths calls onChange after any write, create, rename or remove under
// paths, at most once per quiet period, until ctx is done.
func watchPaths(ctx context.Context, paths []string, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	logger := logging.WithFields(logging.Fields{
		"component": "watcher",
		"function":  "watchPaths",
	})
	logger.Info("Watching for changes", logging.Fields{"paths": paths})

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug("Change detected", logging.Fields{"event": event.String()})
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "Watcher error")
		case <-timer.C:
			if err := onChange(); err != nil {
				// keep watching; the next edit may fix it
				logger.Error(err, "Re-render failed")
			}
		}
	}
}
