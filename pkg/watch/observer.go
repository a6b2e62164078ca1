package watch

import (
	"errors"
	"strings"
)

// ErrClosed is returned by observers used after Close.
var ErrClosed = errors.New("watch: observer closed")

// Observer reports whether anything under the watched paths changed since the
// previous call to Changed.
type Observer interface {
	// Watch registers path. When recursive is true, every directory below it
	// is observed too, including directories created later.
	Watch(path string, recursive bool) error
	// Changed reports whether a relevant change happened since the last call
	// and resets the observer.
	Changed() (bool, error)
	Close() error
}

// Kind names an Observer implementation.
type Kind string

const (
	KindNotify Kind = "notify"
	KindPoll   Kind = "poll"
)

// ParseKind maps a configuration value to a Kind. Empty input selects
// KindNotify.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindNotify:
		return KindNotify, nil
	case KindPoll:
		return KindPoll, nil
	default:
		return "", errors.New("watch: unknown observer kind " + raw)
	}
}

// New constructs an observer of the given kind.
func New(kind Kind) (Observer, error) {
	switch kind {
	case "", KindNotify:
		return NewNotifyObserver()
	case KindPoll:
		return NewPollObserver(), nil
	default:
		return nil, errors.New("watch: unknown observer kind " + string(kind))
	}
}
