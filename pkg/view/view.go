package view

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-viewengine/pkg/logging"
	"github.com/goliatone/go-viewengine/pkg/render/template"
	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
	"github.com/goliatone/go-viewengine/pkg/watch"
)

// View renders templates from a directory. It is safe for concurrent use:
// renders are serialised behind one mutex that covers environment
// acquisition, lookup and execution.
type View struct {
	mu sync.Mutex

	root       string
	mode       Mode
	strategy   strategy
	logger     *log.Logger
	htmlPolicy *bluemonday.Policy
	closed     bool
}

// Ensure View implements the ViewRenderer interface.
var _ template.ViewRenderer = (*View)(nil)

// Build constructs a View over DefaultTemplatesDir.
func Build(options ...Option) (*View, error) {
	return FromDir(DefaultTemplatesDir, options...)
}

// FromDir constructs a View over root. The directory must exist; a missing
// root fails before anything is compiled.
func FromDir(root string, options ...Option) (*View, error) {
	cfg := &config{
		mode: ModeStatic,
		kind: watch.KindNotify,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.Discard()
	}
	logger := cfg.logger.With("root", root, "mode", cfg.mode.String())

	// An injected observer belongs to the View; release it when no View is
	// returned.
	built := false
	defer func() {
		if !built && cfg.observer != nil {
			_ = cfg.observer.Close()
		}
	}()

	info, err := os.Stat(root)
	if err != nil {
		return nil, &ConstructionError{Path: root, Err: fmt.Errorf("%w: %w", ErrMissingTemplatesDir, err)}
	}
	if !info.IsDir() {
		return nil, &ConstructionError{Path: root, Err: fmt.Errorf("%w: not a directory", ErrMissingTemplatesDir)}
	}

	base := cfg.base
	if base == nil {
		base, err = jinja.New(cfg.envOptions...)
		if err != nil {
			return nil, &ConstructionError{Path: root, Err: err}
		}
	}

	build := func() (*jinja.Environment, error) {
		env, err := base.Bind(root)
		if err != nil {
			return nil, err
		}
		if cfg.preload {
			if err := env.Preload(); err != nil {
				return nil, err
			}
		}
		return env, nil
	}

	v := &View{
		root:       root,
		mode:       cfg.mode,
		logger:     logger,
		htmlPolicy: cfg.htmlPolicy,
	}

	switch cfg.mode {
	case ModeStatic:
		if cfg.observer != nil {
			if err := cfg.observer.Close(); err != nil {
				logger.Warn("close unused observer failed", "err", err)
			}
			cfg.observer = nil
		}
		env, err := build()
		if err != nil {
			return nil, &ConstructionError{Path: root, Err: err}
		}
		v.strategy = &staticStrategy{env: env}
		logger.Debug("templates loaded")

	case ModeWatching:
		observer := cfg.observer
		cfg.observer = nil
		if observer == nil {
			observer, err = watch.New(cfg.kind)
			if err != nil {
				return nil, &ConstructionError{Path: root, Err: err}
			}
		}
		ws := &watchingStrategy{
			root:     root,
			build:    build,
			observer: observer,
			logger:   logger,
		}
		if cfg.preload {
			if _, err := ws.acquire(); err != nil {
				_ = observer.Close()
				var rebuildErr *RebuildError
				if errors.As(err, &rebuildErr) {
					err = rebuildErr.Err
				}
				return nil, &ConstructionError{Path: root, Err: err}
			}
		}
		v.strategy = ws

	default:
		return nil, &ConstructionError{Path: root, Err: fmt.Errorf("unsupported mode %s", cfg.mode)}
	}

	built = true
	return v, nil
}

// Root returns the template directory.
func (v *View) Root() string {
	return v.root
}

// Mode reports whether the View is static or watching.
func (v *View) Mode() Mode {
	return v.mode
}

// Render executes the named template against data and returns the output
// unchanged. The output is also copied to every writer in out, after the
// lock has been released.
func (v *View) Render(name string, data any, out ...io.Writer) (string, error) {
	rendered, err := v.render(name, data)
	if err != nil {
		return "", err
	}
	if err := template.WriteAll(rendered, out...); err != nil {
		return "", fmt.Errorf("view: write output: %w", err)
	}
	return rendered, nil
}

// RenderHTML is Render tagged as markup-safe. With an HTML policy configured
// the output is sanitised first.
func (v *View) RenderHTML(name string, data any) (htmltemplate.HTML, error) {
	rendered, err := v.render(name, data)
	if err != nil {
		return "", err
	}
	if v.htmlPolicy != nil {
		rendered = v.htmlPolicy.Sanitize(rendered)
	}
	return htmltemplate.HTML(rendered), nil
}

func (v *View) render(name string, data any) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return "", ErrClosed
	}

	env, err := v.strategy.acquire()
	if err != nil {
		return "", err
	}

	tmpl, err := env.Template(name)
	if err != nil {
		v.logger.Debug("template lookup failed", "template", name, "err", err)
		return "", &LookupError{Name: name, Err: err}
	}

	rendered, err := env.Execute(tmpl, data)
	if err != nil {
		v.logger.Debug("template execution failed", "template", name, "err", err)
		return "", &ExecutionError{Name: name, Err: err}
	}
	return rendered, nil
}

// Close releases the observer of a watching View. Renders after Close fail
// with ErrClosed.
func (v *View) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	return v.strategy.close()
}
