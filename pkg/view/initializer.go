package view

import (
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"

	"github.com/goliatone/go-viewengine/pkg/app"
	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
	"github.com/goliatone/go-viewengine/pkg/watch"
)

// InitializerName is the name both initializers report and the key their
// settings live under in the application configuration.
const InitializerName = "jinja"

// Settings are read from the "initializers.jinja" configuration section.
type Settings struct {
	TemplateDir string `mapstructure:"template_dir"`
	Mode        string `mapstructure:"mode"`
	Observer    string `mapstructure:"observer"`
	Extension   string `mapstructure:"extension"`
	Preload     bool   `mapstructure:"preload"`
	CacheSize   int    `mapstructure:"cache_size"`
}

// DecodeSettings decodes raw initializer settings. Unknown keys are errors so
// typos do not silently fall back to defaults.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var settings Settings
	if len(raw) == 0 {
		return settings, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return settings, fmt.Errorf("view: settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return settings, fmt.Errorf("view: decode %s settings: %w", InitializerName, err)
	}
	return settings, nil
}

// Options translates settings into View options. Extension and cache size
// only apply when no base environment is supplied.
func (s Settings) Options() ([]Option, error) {
	mode, err := ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	kind, err := watch.ParseKind(s.Observer)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithMode(mode),
		WithObserverKind(kind),
		WithPreload(s.Preload),
	}

	var envOpts []jinja.Option
	if s.Extension != "" {
		envOpts = append(envOpts, jinja.WithExtension(s.Extension))
	}
	if s.CacheSize > 0 {
		envOpts = append(envOpts, jinja.WithCacheSize(s.CacheSize))
	}
	if len(envOpts) > 0 {
		opts = append(opts, WithEnvironmentOptions(envOpts...))
	}
	return opts, nil
}

// Initializer attaches a View over the configured template directory,
// DefaultTemplatesDir unless the settings name another one.
type Initializer struct{}

var _ app.Initializer = Initializer{}

func (Initializer) Name() string {
	return InitializerName
}

func (Initializer) AfterRoutes(router http.Handler, ctx *app.AppContext) (http.Handler, error) {
	return attach(router, ctx, "", nil)
}

// ConfigurableInitializer attaches a View over an explicit directory,
// optionally starting from a pre-built base environment carrying custom
// globals, functions and filters.
type ConfigurableInitializer struct {
	dir     string
	base    *jinja.Environment
	options []Option
}

var _ app.Initializer = (*ConfigurableInitializer)(nil)

// NewConfigurableInitializer returns an initializer for dir. base may be nil.
// Explicit arguments take precedence over configuration settings.
func NewConfigurableInitializer(dir string, base *jinja.Environment, options ...Option) *ConfigurableInitializer {
	return &ConfigurableInitializer{dir: dir, base: base, options: options}
}

func (i *ConfigurableInitializer) Name() string {
	return InitializerName
}

func (i *ConfigurableInitializer) AfterRoutes(router http.Handler, ctx *app.AppContext) (http.Handler, error) {
	opts := make([]Option, 0, len(i.options)+1)
	if i.base != nil {
		opts = append(opts, WithBaseEnvironment(i.base))
	}
	opts = append(opts, i.options...)
	return attach(router, ctx, i.dir, opts)
}

func attach(router http.Handler, ctx *app.AppContext, dir string, extra []Option) (http.Handler, error) {
	ctx = app.Normalize(ctx)

	settings, err := DecodeSettings(ctx.Config.Initializer(InitializerName))
	if err != nil {
		return nil, err
	}
	opts, err := settings.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithLogger(ctx.Logger))
	opts = append(opts, extra...)

	if dir == "" {
		dir = settings.TemplateDir
	}
	if dir == "" {
		dir = DefaultTemplatesDir
	}

	v, err := FromDir(dir, opts...)
	if err != nil {
		return nil, err
	}
	ctx.Logger.Info("view engine attached", "name", InitializerName, "root", v.Root(), "mode", v.Mode().String())
	return app.WithViewEngine(router, app.NewViewEngine(v)), nil
}
