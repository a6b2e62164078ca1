// Package app models the host web application seam the view engine plugs
// into: a shared application context, lifecycle initializers that run after
// routes are registered, and request-scoped access to the view engine.
package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-viewengine/pkg/config"
	"github.com/goliatone/go-viewengine/pkg/logging"
)

// AppContext is shared by every initializer and handler of one application.
type AppContext struct {
	Config *config.Config
	Logger *log.Logger
}

// NewContext returns an AppContext, filling in an empty configuration and a
// discarding logger when none are provided.
func NewContext(cfg *config.Config, logger *log.Logger) *AppContext {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &AppContext{Config: cfg, Logger: logger}
}

// Normalize returns ctx when it is complete, or a copy with the missing
// configuration and logger filled in. A nil ctx yields NewContext(nil, nil).
func Normalize(ctx *AppContext) *AppContext {
	if ctx == nil {
		return NewContext(nil, nil)
	}
	if ctx.Config != nil && ctx.Logger != nil {
		return ctx
	}
	return NewContext(ctx.Config, ctx.Logger)
}

// Initializer is a lifecycle hook invoked once after the router is built.
// It may wrap the router, typically to attach shared state to requests.
type Initializer interface {
	Name() string
	AfterRoutes(router http.Handler, ctx *AppContext) (http.Handler, error)
}

// AfterRoutes runs initializers in order, threading the router through each
// of them. The first failure aborts startup.
func AfterRoutes(router http.Handler, ctx *AppContext, initializers ...Initializer) (http.Handler, error) {
	if router == nil {
		return nil, errors.New("app: router is required")
	}
	ctx = Normalize(ctx)

	for _, initializer := range initializers {
		if initializer == nil {
			continue
		}
		name := initializer.Name()
		next, err := initializer.AfterRoutes(router, ctx)
		if err != nil {
			return nil, fmt.Errorf("app: initializer %q: %w", name, err)
		}
		if next == nil {
			return nil, fmt.Errorf("app: initializer %q returned a nil router", name)
		}
		ctx.Logger.Debug("initializer applied", "name", name)
		router = next
	}
	return router, nil
}
