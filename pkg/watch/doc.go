// Package watch provides the file-system observers used to detect template
// changes: a native fsnotify-backed observer and a stat-polling fallback.
package watch
