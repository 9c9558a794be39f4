// Package watch delivers debounced filesystem change batches for
// auto-regeneration.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the settle window applied before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a directory tree recursively and delivers merged, sorted,
// deduplicated path batches once changes settle for the debounce interval.
type Watcher struct {
	notifier  *fsnotify.Watcher
	batches   chan []string
	errs      chan error
	debounce  time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// New starts watching root and every directory below it. Directories created
// while watching are registered as they appear.
func New(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	notifier, notifierError := fsnotify.NewWatcher()
	if notifierError != nil {
		return nil, fmt.Errorf("create filesystem notifier: %w", notifierError)
	}

	watcher := &Watcher{
		notifier: notifier,
		batches:  make(chan []string, 1),
		errs:     make(chan error, 1),
		debounce: debounce,
		done:     make(chan struct{}),
	}
	if registerError := watcher.registerTree(root); registerError != nil {
		notifier.Close()
		return nil, registerError
	}
	go watcher.run()
	return watcher, nil
}

// Batches delivers one merged, sorted, deduplicated path slice per settled
// change burst.
func (watcher *Watcher) Batches() <-chan []string {
	return watcher.batches
}

// Errors delivers watch errors; the watch loop keeps running after them.
func (watcher *Watcher) Errors() <-chan error {
	return watcher.errs
}

// Close releases the underlying notification handles and stops the loop.
func (watcher *Watcher) Close() error {
	var closeError error
	watcher.closeOnce.Do(func() {
		close(watcher.done)
		closeError = watcher.notifier.Close()
	})
	return closeError
}

// registerTree adds root and every directory below it to the notifier.
func (watcher *Watcher) registerTree(root string) error {
	return filepath.WalkDir(root, func(walkPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !entry.IsDir() {
			return nil
		}
		if addError := watcher.notifier.Add(walkPath); addError != nil {
			return fmt.Errorf("watch %s: %w", walkPath, addError)
		}
		return nil
	})
}

func (watcher *Watcher) run() {
	pending := make(map[string]struct{})
	settleTimer := time.NewTimer(watcher.debounce)
	if !settleTimer.Stop() {
		<-settleTimer.C
	}

	for {
		select {
		case <-watcher.done:
			settleTimer.Stop()
			return
		case event, open := <-watcher.notifier.Events:
			if !open {
				settleTimer.Stop()
				return
			}
			if !isRelevantOperation(event.Op) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if information, statError := os.Stat(event.Name); statError == nil && information.IsDir() {
					_ = watcher.notifier.Add(event.Name)
				}
			}
			pending[event.Name] = struct{}{}
			settleTimer.Reset(watcher.debounce)
		case watchError, open := <-watcher.notifier.Errors:
			if !open {
				settleTimer.Stop()
				return
			}
			select {
			case watcher.errs <- watchError:
			default:
			}
		case <-settleTimer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for pendingPath := range pending {
				batch = append(batch, pendingPath)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})
			select {
			case watcher.batches <- batch:
			case <-watcher.done:
				settleTimer.Stop()
				return
			}
		}
	}
}

// isRelevantOperation filters the notifier stream down to create, write,
// remove, and rename operations.
func isRelevantOperation(operation fsnotify.Op) bool {
	return operation.Has(fsnotify.Create) ||
		operation.Has(fsnotify.Write) ||
		operation.Has(fsnotify.Remove) ||
		operation.Has(fsnotify.Rename)
}
