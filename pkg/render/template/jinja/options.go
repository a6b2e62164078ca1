package jinja

import (
	"strings"
)

// DefaultCacheSize bounds the number of compiled templates an Environment keeps.
const DefaultCacheSize = 512

// Option configures an Environment before construction.
type Option func(*config)

type config struct {
	name       string
	extension  string
	cacheSize  int
	debug      bool
	strict     bool
	templateFn map[string]any
	globalData map[string]any
	sources    map[string]string
}

// WithName sets the name of the underlying template set. It only shows up in
// engine diagnostics.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithExtension makes lookups append ext to names that do not already end
// with it, so "home/index" resolves to "home/index.html".
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			cfg.extension = ""
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithCacheSize bounds the compiled template registry. Values <= 0 keep the
// default.
func WithCacheSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.cacheSize = size
		}
	}
}

// WithDebug disables pongo2's own template caching for included templates.
func WithDebug(debug bool) Option {
	return func(cfg *config) {
		cfg.debug = debug
	}
}

// WithStrictUndefined controls attribute access on variables missing from
// the render data. When strict (the default) "{{ user.name }}" without a
// "user" fails the render; bare references such as "{{ user }}" still print
// nothing. Lenient mode renders every missing value as empty.
func WithStrictUndefined(strict bool) Option {
	return func(cfg *config) {
		cfg.strict = strict
	}
}

// WithTemplateFunc registers helper functions or filters when the environment
// is constructed. pongo2.FilterFunction values become filters, any other
// function becomes a global callable.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithTemplates registers in-memory template sources keyed by name. They are
// resolved after the bound directory, so files on disk win on conflicts.
func WithTemplates(sources map[string]string) Option {
	return func(cfg *config) {
		if len(sources) == 0 {
			return
		}
		if cfg.sources == nil {
			cfg.sources = make(map[string]string, len(sources))
		}
		for name, source := range sources {
			cfg.sources[name] = source
		}
	}
}
