package app

import (
	"context"
	"html/template"
	"io"
	"net/http"

	rendertemplate "github.com/goliatone/go-viewengine/pkg/render/template"
)

// ViewEngine is the handle handlers use to render views. It wraps whichever
// renderer the registered initializer built.
type ViewEngine struct {
	renderer rendertemplate.ViewRenderer
}

// NewViewEngine wraps renderer.
func NewViewEngine(renderer rendertemplate.ViewRenderer) *ViewEngine {
	return &ViewEngine{renderer: renderer}
}

// Renderer returns the wrapped renderer.
func (e *ViewEngine) Renderer() rendertemplate.ViewRenderer {
	return e.renderer
}

// Render delegates to the wrapped renderer.
func (e *ViewEngine) Render(name string, data any, out ...io.Writer) (string, error) {
	return e.renderer.Render(name, data, out...)
}

// RenderHTML delegates to the wrapped renderer.
func (e *ViewEngine) RenderHTML(name string, data any) (template.HTML, error) {
	return e.renderer.RenderHTML(name, data)
}

type viewEngineKey struct{}

// ContextWithViewEngine returns a copy of ctx carrying engine.
func ContextWithViewEngine(ctx context.Context, engine *ViewEngine) context.Context {
	return context.WithValue(ctx, viewEngineKey{}, engine)
}

// ViewEngineFromContext returns the engine attached by WithViewEngine.
func ViewEngineFromContext(ctx context.Context) (*ViewEngine, bool) {
	engine, ok := ctx.Value(viewEngineKey{}).(*ViewEngine)
	return engine, ok && engine != nil
}

// WithViewEngine attaches engine to every request passing through next.
func WithViewEngine(next http.Handler, engine *ViewEngine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ContextWithViewEngine(r.Context(), engine)))
	})
}
