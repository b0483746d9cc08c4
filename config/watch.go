// config/watch.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/soarium/glidecomp/log"
)

// Watch monitors path for changes and calls onChange with the newly
// loaded Settings each time the file is written. It runs until ctx is
// cancelled.
//
// If a reload fails (e.g., invalid yaml), the error is logged and the
// previous settings remain active; Watch does not call onChange.
func Watch(ctx context.Context, path string, lg *log.Logger, onChange func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	lg.Info("watching settings file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write
			// via rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			s, err := Load(path)
			if err != nil {
				lg.Warn("settings reload failed; keeping previous settings",
					"path", path, "err", err)
				continue
			}

			lg.Info("settings reloaded", "path", path)
			onChange(s)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			lg.Warn("settings watcher error", "err", err)
		}
	}
}
