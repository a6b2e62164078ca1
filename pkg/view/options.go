package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
	"github.com/goliatone/go-viewengine/pkg/watch"
)

// DefaultTemplatesDir is the template root used by Build.
const DefaultTemplatesDir = "assets/templates"

// Mode selects how a View keeps its environment current.
type Mode int

const (
	// ModeStatic builds the environment once.
	ModeStatic Mode = iota
	// ModeWatching rebuilds the environment when template files change.
	ModeWatching
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeWatching:
		return "watching"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration value to a Mode. Empty input is ModeStatic.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "static":
		return ModeStatic, nil
	case "watching", "watch", "reload", "autoreload":
		return ModeWatching, nil
	default:
		return ModeStatic, fmt.Errorf("view: unknown mode %q", raw)
	}
}

// Option configures a View before construction.
type Option func(*config)

type config struct {
	mode       Mode
	base       *jinja.Environment
	envOptions []jinja.Option
	observer   watch.Observer
	kind       watch.Kind
	preload    bool
	logger     *log.Logger
	htmlPolicy *bluemonday.Policy
}

// WithMode selects Static or Watching behaviour.
func WithMode(mode Mode) Option {
	return func(cfg *config) {
		cfg.mode = mode
	}
}

// WithBaseEnvironment starts every build from a clone of env instead of a
// blank environment. env itself is never modified.
func WithBaseEnvironment(env *jinja.Environment) Option {
	return func(cfg *config) {
		if env != nil {
			cfg.base = env
		}
	}
}

// WithEnvironmentOptions configures the blank environment used when no base
// environment is supplied.
func WithEnvironmentOptions(opts ...jinja.Option) Option {
	return func(cfg *config) {
		cfg.envOptions = append(cfg.envOptions, opts...)
	}
}

// WithObserver injects the observer used in ModeWatching. The View takes
// ownership and closes it on Close. A static View, or a failed construction,
// closes it immediately.
func WithObserver(observer watch.Observer) Option {
	return func(cfg *config) {
		if observer != nil {
			cfg.observer = observer
		}
	}
}

// WithObserverKind picks the observer implementation created for
// ModeWatching when none is injected.
func WithObserverKind(kind watch.Kind) Option {
	return func(cfg *config) {
		cfg.kind = kind
	}
}

// WithPreload compiles every template when an environment is built, turning
// syntax errors into construction (or rebuild) failures.
func WithPreload(preload bool) Option {
	return func(cfg *config) {
		cfg.preload = preload
	}
}

// WithLogger sets the logger used for build and reload events.
func WithLogger(logger *log.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithHTMLPolicy sanitises RenderHTML output with policy. Render is not
// affected.
func WithHTMLPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		cfg.htmlPolicy = policy
	}
}
