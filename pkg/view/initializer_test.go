package view_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewengine/pkg/app"
	"github.com/goliatone/go-viewengine/pkg/config"
	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
	"github.com/goliatone/go-viewengine/pkg/testsupport"
	"github.com/goliatone/go-viewengine/pkg/view"
)

func TestInitializer_Name(t *testing.T) {
	assert.Equal(t, "jinja", view.Initializer{}.Name())
	assert.Equal(t, "jinja", view.NewConfigurableInitializer("", nil).Name())
}

func TestInitializer_AttachesSingleEngine(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{
		"pages/index.html": "index for {{ who }}",
	})
	ctx := app.NewContext(&config.Config{
		Initializers: map[string]map[string]any{
			"jinja": {"template_dir": dir},
		},
	}, nil)

	var engines []*app.ViewEngine
	router := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		engine, ok := app.ViewEngineFromContext(r.Context())
		if !ok {
			http.Error(w, "no view engine", http.StatusInternalServerError)
			return
		}
		engines = append(engines, engine)
		if _, err := engine.Render("pages/index.html", map[string]any{"who": r.URL.Query().Get("who")}, w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	handler, err := app.AfterRoutes(router, ctx, view.Initializer{})
	require.NoError(t, err)

	for _, who := range []string{"ada", "grace"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?who="+who, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "index for "+who, rec.Body.String())
	}

	require.Len(t, engines, 2)
	assert.Same(t, engines[0], engines[1])

	v, ok := engines[0].Renderer().(*view.View)
	require.True(t, ok, "expected the engine to wrap a *view.View")
	assert.Equal(t, dir, v.Root())
	assert.Equal(t, view.ModeStatic, v.Mode())
}

func TestInitializer_SettingsSelectMode(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{"a.html": "a"})
	ctx := app.NewContext(&config.Config{
		Initializers: map[string]map[string]any{
			"jinja": {"template_dir": dir, "mode": "watching", "observer": "poll", "extension": "html"},
		},
	}, nil)

	var engine *app.ViewEngine
	router := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		engine, _ = app.ViewEngineFromContext(r.Context())
	})
	handler, err := app.AfterRoutes(router, ctx, view.Initializer{})
	require.NoError(t, err)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, engine)
	v := engine.Renderer().(*view.View)
	t.Cleanup(func() { _ = v.Close() })
	assert.Equal(t, view.ModeWatching, v.Mode())

	got, err := engine.Render("a", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestInitializer_BareAppContext(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{"index.html": "bare"})

	handler, err := view.NewConfigurableInitializer(dir, nil).AfterRoutes(http.NewServeMux(), &app.AppContext{})
	require.NoError(t, err)
	require.NotNil(t, handler)

	handler, err = app.AfterRoutes(http.NotFoundHandler(), &app.AppContext{Config: &config.Config{}},
		view.NewConfigurableInitializer(dir, nil))
	require.NoError(t, err)
	require.NotNil(t, handler)
}

func TestInitializer_MissingDirectoryAbortsStartup(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "assets", "templates")
	ctx := app.NewContext(&config.Config{
		Initializers: map[string]map[string]any{
			"jinja": {"template_dir": missing},
		},
	}, nil)

	handler, err := app.AfterRoutes(http.NotFoundHandler(), ctx, view.Initializer{})
	require.Error(t, err)
	assert.Nil(t, handler)
	assert.True(t, errors.Is(err, view.ErrMissingTemplatesDir))
	assert.Contains(t, err.Error(), `initializer "jinja"`)

	var constructionErr *view.ConstructionError
	require.ErrorAs(t, err, &constructionErr)
	assert.Equal(t, missing, constructionErr.Path)
}

func TestInitializer_UnknownSettingFails(t *testing.T) {
	ctx := app.NewContext(&config.Config{
		Initializers: map[string]map[string]any{
			"jinja": {"template_directory": "oops"},
		},
	}, nil)

	_, err := app.AfterRoutes(http.NotFoundHandler(), ctx, view.Initializer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template_directory")
}

func TestConfigurableInitializer_UsesBaseEnvironment(t *testing.T) {
	dir := testsupport.WriteTemplates(t, map[string]string{
		"hello.html": "{{ greeting }}, {{ name }}",
	})
	base, err := jinja.New(jinja.WithGlobalData(map[string]any{"greeting": "Hola"}))
	require.NoError(t, err)

	ctx := app.NewContext(&config.Config{
		Initializers: map[string]map[string]any{
			"jinja": {"template_dir": "ignored/because/explicit"},
		},
	}, nil)

	var engine *app.ViewEngine
	router := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		engine, _ = app.ViewEngineFromContext(r.Context())
	})
	handler, err := app.AfterRoutes(router, ctx, view.NewConfigurableInitializer(dir, base))
	require.NoError(t, err)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, engine)

	got, err := engine.Render("hello.html", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hola, Ada", got)

	html, err := engine.RenderHTML("hello.html", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, got, string(html))
}

func TestDecodeSettings(t *testing.T) {
	settings, err := view.DecodeSettings(map[string]any{
		"template_dir": "views",
		"mode":         "watching",
		"preload":      "true",
		"cache_size":   "64",
	})
	require.NoError(t, err)
	assert.Equal(t, view.Settings{
		TemplateDir: "views",
		Mode:        "watching",
		Preload:     true,
		CacheSize:   64,
	}, settings)

	empty, err := view.DecodeSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, view.Settings{}, empty)

	_, err = view.Settings{Mode: "sometimes"}.Options()
	assert.Error(t, err)
	_, err = view.Settings{Observer: "psychic"}.Options()
	assert.Error(t, err)
}
