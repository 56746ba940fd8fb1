// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// Watcher reloads the config file when it changes on disk, so newly added
// API keys re-gate model selectability without a restart.
type Watcher struct {
	fw   *fsnotify.Watcher
	path string
	ch   chan *Config
	done chan struct{}
}

// Watch starts watching path for changes. Reloaded configs arrive on C();
// edits that fail to parse are skipped and the previous config stays active.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace the file, which drops a watch
	// registered on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:   fw,
		path: path,
		ch:   make(chan *Config, 1),
		done: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// C returns the channel delivering reloaded configs.
func (w *Watcher) C() <-chan *Config {
	return w.ch
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run() {
	// Editors fire several events per save; debounce before reloading.
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				continue
			}
			select {
			case w.ch <- cfg:
			default:
				// Drop the stale pending config and queue the new one.
				select {
				case <-w.ch:
				default:
				}
				w.ch <- cfg
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}
