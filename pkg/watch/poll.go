package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileStamp struct {
	modTime time.Time
	size    int64
	dir     bool
}

type snapshot map[string]fileStamp

// PollObserver fingerprints the watched trees on every Changed call. It runs
// no goroutine and never reports a stale tree as fresh, at the cost of a
// directory walk per check.
type PollObserver struct {
	mu      sync.Mutex
	targets map[string]bool
	last    snapshot
	closed  bool
}

var _ Observer = (*PollObserver)(nil)

// NewPollObserver returns an observer with nothing watched.
func NewPollObserver() *PollObserver {
	return &PollObserver{
		targets: make(map[string]bool),
		last:    make(snapshot),
	}
}

// Watch records path and takes a fresh snapshot of every watched path.
func (o *PollObserver) Watch(path string, recursive bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	o.targets[filepath.Clean(path)] = recursive

	snap, err := o.scan()
	if err != nil {
		return err
	}
	o.last = snap
	return nil
}

// Changed rescans the watched paths and compares them with the previous scan.
func (o *PollObserver) Changed() (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false, ErrClosed
	}

	snap, err := o.scan()
	if err != nil {
		o.last = make(snapshot)
		return true, err
	}

	changed := !snap.equal(o.last)
	o.last = snap
	return changed, nil
}

// Close forgets every watched path.
func (o *PollObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.targets = nil
	o.last = nil
	return nil
}

func (o *PollObserver) scan() (snapshot, error) {
	snap := make(snapshot)
	for target, recursive := range o.targets {
		if err := scanPath(snap, target, recursive); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func scanPath(snap snapshot, root string, recursive bool) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch: stat %s: %w", root, err)
	}
	snap[root] = stampOf(info)
	if !info.IsDir() {
		return nil
	}

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return fmt.Errorf("watch: read %s: %w", root, err)
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				return fmt.Errorf("watch: stat %s: %w", entry.Name(), err)
			}
			snap[filepath.Join(root, entry.Name())] = stampOf(info)
		}
		return nil
	}

	return filepath.WalkDir(root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("watch: walk %s: %w", p, walkErr)
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("watch: stat %s: %w", p, err)
		}
		snap[p] = stampOf(info)
		return nil
	})
}

func stampOf(info fs.FileInfo) fileStamp {
	return fileStamp{
		modTime: info.ModTime(),
		size:    info.Size(),
		dir:     info.IsDir(),
	}
}

func (s snapshot) equal(other snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for path, stamp := range s {
		prev, ok := other[path]
		if !ok {
			return false
		}
		if stamp.dir != prev.dir || stamp.size != prev.size || !stamp.modTime.Equal(prev.modTime) {
			return false
		}
	}
	return true
}
