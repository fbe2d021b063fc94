package engine

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/internal/discovery"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period before a change triggers a rerun.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc receives the outcome of every run started by Watch.
type RunFunc func(*Result, error)

// Watch runs the pipeline once, then again after every change to a class
// descriptor or archive under the test directory, until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration, fn RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, e.testDir); err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	trigger := make(chan struct{}, 1)
	trigger <- struct{}{}

	// Runner: one run at a time, coalescing triggers that arrive meanwhile.
	eg.Go(func() error {
		for {
			select {
			case <-egctx.Done():
				return nil
			case <-trigger:
				res, err := e.Run(egctx)
				if egctx.Err() != nil {
					return nil
				}
				fn(res, err)
			}
		}
	})

	// Watcher: debounce file events into triggers.
	eg.Go(func() error {
		var debounceTimer *time.Timer
		defer func() {
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
		}()

		for {
			select {
			case <-egctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op.Has(fsnotify.Create) {
					// New directories need watching too.
					_ = watchDirRecursive(watcher, event.Name)
				}
				if !relevant(event.Name) {
					continue
				}
				e.logger.Debug("test class changed", "file", event.Name, "op", event.Op.String())

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				e.logger.Error("watcher error", "error", err)
			}
		}
	})

	return eg.Wait()
}

func relevant(name string) bool {
	return strings.HasSuffix(name, classpath.DescriptorExt) ||
		strings.EqualFold(filepath.Ext(name), discovery.ArchiveExt)
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
// Paths that are not directories are ignored.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
