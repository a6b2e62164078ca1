package jinja

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// memoryLoader serves templates registered with AddTemplate. It implements
// pongo2.TemplateLoader so in-memory templates can be extended or included by
// name just like files.
type memoryLoader struct {
	mu      sync.RWMutex
	root    string
	sources map[string]string
}

func newMemoryLoader() *memoryLoader {
	return &memoryLoader{sources: make(map[string]string)}
}

func (l *memoryLoader) set(name, source string) {
	l.mu.Lock()
	l.sources[name] = source
	l.mu.Unlock()
}

func (l *memoryLoader) has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.sources[name]
	return ok
}

func (l *memoryLoader) names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.sources))
	for name := range l.sources {
		out = append(out, name)
	}
	return out
}

func (l *memoryLoader) clone() *memoryLoader {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := newMemoryLoader()
	for name, source := range l.sources {
		out.sources[name] = source
	}
	return out
}

// bind records the absolute template root. The file-system loader hands out
// absolute paths below it, which map back to in-memory names.
func (l *memoryLoader) bind(root string) {
	abs := ""
	if root != "" {
		if resolved, err := filepath.Abs(root); err == nil {
			abs = resolved
		}
	}
	l.mu.Lock()
	l.root = abs
	l.mu.Unlock()
}

// Abs resolves name relative to the directory of base, mirroring how the
// file-system loader treats relative includes.
func (l *memoryLoader) Abs(base, name string) string {
	l.mu.RLock()
	root := l.root
	l.mu.RUnlock()

	if root != "" && filepath.IsAbs(name) {
		if rel, err := filepath.Rel(root, name); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	if strings.HasPrefix(name, "/") || base == "" {
		return strings.TrimPrefix(path.Clean("/"+name), "/")
	}
	if l.has(name) {
		return name
	}
	return strings.TrimPrefix(path.Clean(path.Join("/", path.Dir(base), name)), "/")
}

func (l *memoryLoader) Get(name string) (io.Reader, error) {
	l.mu.RLock()
	source, ok := l.sources[name]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("jinja: template %q not registered", name)
	}
	return strings.NewReader(source), nil
}
