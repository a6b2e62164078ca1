package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// NotifyObserver relies on native file-system notifications. A single
// goroutine drains the watcher and raises a dirty flag; Changed only reads
// and clears it.
type NotifyObserver struct {
	watcher *fsnotify.Watcher
	dirty   atomic.Bool

	mu        sync.Mutex
	recursive map[string]bool
	lastErr   error
	closed    bool
	done      chan struct{}
}

var _ Observer = (*NotifyObserver)(nil)

// NewNotifyObserver starts an fsnotify watcher.
func NewNotifyObserver() (*NotifyObserver, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	o := &NotifyObserver{
		watcher:   watcher,
		recursive: make(map[string]bool),
		done:      make(chan struct{}),
	}
	go o.loop()
	return o, nil
}

// Watch adds path to the watcher. Watching a path twice is a no-op.
func (o *NotifyObserver) Watch(path string, recursive bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	root := filepath.Clean(path)
	if !recursive {
		if err := o.watcher.Add(root); err != nil {
			return fmt.Errorf("watch: add %s: %w", root, err)
		}
		return nil
	}

	o.recursive[root] = true
	return o.addTree(root)
}

func (o *NotifyObserver) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("watch: walk %s: %w", p, walkErr)
		}
		if !entry.IsDir() {
			return nil
		}
		if err := o.watcher.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
}

func (o *NotifyObserver) loop() {
	defer close(o.done)
	for {
		select {
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			o.handle(event)
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.mu.Lock()
			o.lastErr = err
			o.mu.Unlock()
			o.dirty.Store(true)
		}
	}
}

func (o *NotifyObserver) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && o.underRecursive(event.Name) {
			o.mu.Lock()
			if !o.closed {
				if err := o.addTree(event.Name); err != nil {
					o.lastErr = err
				}
			}
			o.mu.Unlock()
		}
	}
	o.dirty.Store(true)
}

func (o *NotifyObserver) underRecursive(path string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for root := range o.recursive {
		rel, err := filepath.Rel(root, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// Changed reports and clears the dirty flag. A watcher error is returned
// once, together with true, so callers rebuild rather than trust a watcher
// that may have missed events.
func (o *NotifyObserver) Changed() (bool, error) {
	o.mu.Lock()
	closed := o.closed
	err := o.lastErr
	o.lastErr = nil
	o.mu.Unlock()

	if closed {
		return false, ErrClosed
	}
	changed := o.dirty.Swap(false)
	if err != nil {
		return true, fmt.Errorf("watch: %w", err)
	}
	return changed, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (o *NotifyObserver) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	err := o.watcher.Close()
	<-o.done
	return err
}
