package view

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
	"github.com/goliatone/go-viewengine/pkg/watch"
)

// strategy hands out the environment a render should use. Implementations
// are only called with View.mu held.
type strategy interface {
	acquire() (*jinja.Environment, error)
	close() error
}

// factory builds a fresh environment bound to the template root.
type factory func() (*jinja.Environment, error)

type staticStrategy struct {
	env *jinja.Environment
}

func (s *staticStrategy) acquire() (*jinja.Environment, error) {
	return s.env, nil
}

func (s *staticStrategy) close() error {
	return nil
}

// watchingStrategy rebuilds the environment whenever the observer reports a
// change. A failed rebuild drops the previous environment, so the next
// acquisition builds again instead of serving templates known to be stale.
type watchingStrategy struct {
	root     string
	build    factory
	observer watch.Observer
	logger   *log.Logger

	env *jinja.Environment
}

func (s *watchingStrategy) acquire() (*jinja.Environment, error) {
	changed, err := s.observer.Changed()
	if err != nil {
		s.logger.Warn("template observer failed, forcing rebuild", "err", err)
		changed = true
	}
	if s.env != nil && !changed {
		return s.env, nil
	}
	if s.env != nil {
		s.logger.Debug("template change detected")
	}

	s.env = nil
	start := time.Now()

	// Watch before building: anything modified while the build reads files
	// is reported on the next acquisition.
	if err := s.observer.Watch(s.root, true); err != nil {
		s.logger.Error("watch templates failed", "err", err)
		return nil, &RebuildError{Root: s.root, Err: err}
	}
	env, err := s.build()
	if err != nil {
		s.logger.Error("rebuild templates failed", "err", err)
		return nil, &RebuildError{Root: s.root, Err: err}
	}

	s.env = env
	s.logger.Info("templates loaded", "took", time.Since(start))
	return env, nil
}

func (s *watchingStrategy) close() error {
	s.env = nil
	return s.observer.Close()
}
