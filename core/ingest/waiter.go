package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"melodex/apperr"
	"melodex/logger"
)

// audioExtensions are the extensions an audio extraction may produce,
// checked in order of preference.
var audioExtensions = []string{".m4a", ".mp3", ".opus", ".ogg", ".webm", ".aac", ".wav"}

// waitForFile blocks until a non-empty file named base+ext appears in dir
// for one of the given extensions, or the timeout elapses. The extraction
// tool offers no completion callback, so a non-empty file is the sole
// completion signal. A directory watcher wakes the loop early when it can;
// the fixed-interval tick remains the fallback and the timeout the bound.
func waitForFile(ctx context.Context, dir, base string, exts []string, interval, timeout time.Duration) (string, error) {
	check := func() string {
		for _, ext := range exts {
			path := filepath.Join(dir, base+ext)
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				return path
			}
		}
		return ""
	}

	if path := check(); path != "" {
		return path, nil
	}

	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(dir); err == nil {
			events = watcher.Events
		} else {
			logger.Warn("could not watch temp dir, falling back to polling only",
				logger.String("dir", dir),
				logger.ErrorField(err))
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.KindExtractionTimeout, "audio extraction was cancelled", ctx.Err())
		case <-deadline.C:
			return "", apperr.Newf(apperr.KindExtractionTimeout, "audio extraction did not finish within %s", timeout)
		case event := <-events:
			// Only re-check when the event concerns our expected file.
			if !strings.Contains(filepath.Base(event.Name), base) {
				continue
			}
			if path := check(); path != "" {
				return path, nil
			}
		case <-ticker.C:
			if path := check(); path != "" {
				return path, nil
			}
		}
	}
}

// removeTempFiles best-effort deletes every produced or partial file for the
// given base name so repeated failed imports do not leak disk.
func removeTempFiles(dir, base string) {
	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			logger.Warn("could not remove temp file",
				logger.String("path", match),
				logger.ErrorField(err))
		}
	}
}
