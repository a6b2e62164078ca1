package jinja

import (
	"reflect"
	"sort"

	"github.com/flosch/pongo2/v6"
)

// undefined stands in for a variable a template references but the render
// data does not provide. It prints as an empty string and is falsy, so bare
// references and default filters behave as before, while attribute access on
// it fails the render.
type undefined string

var (
	templateSetType = reflect.TypeOf((*pongo2.TemplateSet)(nil))
	pongo2PkgPath   = reflect.TypeOf(pongo2.Template{}).PkgPath()
)

// referencedNames returns the first segment of every variable expression in
// tpl, including its parent templates and statically included templates.
// Names bound by tags (loop variables, set, macros) are listed too; pongo2
// resolves those from the private scope first, so shadowing them is harmless.
func referencedNames(tpl *pongo2.Template) []string {
	if tpl == nil {
		return nil
	}

	w := &nameWalker{
		seen:  make(map[visitKey]struct{}),
		names: make(map[string]struct{}),
	}
	w.walk(reflect.ValueOf(tpl))

	out := make([]string, 0, len(w.names))
	for name := range w.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type visitKey struct {
	typ reflect.Type
	ptr uintptr
}

type nameWalker struct {
	seen  map[visitKey]struct{}
	names map[string]struct{}
}

func (w *nameWalker) walk(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Type() == templateSetType {
			return
		}
		key := visitKey{typ: v.Type(), ptr: v.Pointer()}
		if _, ok := w.seen[key]; ok {
			return
		}
		w.seen[key] = struct{}{}
		w.walk(v.Elem())
	case reflect.Interface:
		if !v.IsNil() {
			w.walk(v.Elem())
		}
	case reflect.Struct:
		if v.Type().Name() == "variableResolver" && v.Type().PkgPath() == pongo2PkgPath {
			w.collect(v)
		}
		for i := 0; i < v.NumField(); i++ {
			w.walk(v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			w.walk(v.Index(i))
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			w.walk(iter.Value())
		}
	}
}

func (w *nameWalker) collect(resolver reflect.Value) {
	parts := resolver.FieldByName("parts")
	if !parts.IsValid() || parts.Kind() != reflect.Slice || parts.Len() == 0 {
		return
	}
	first := parts.Index(0)
	if first.Kind() == reflect.Pointer {
		if first.IsNil() {
			return
		}
		first = first.Elem()
	}
	name := first.FieldByName("s")
	if name.IsValid() && name.Kind() == reflect.String && name.String() != "" {
		w.names[name.String()] = struct{}{}
	}
}

// markUndefined adds an undefined placeholder to ctx for every name tmpl
// references that neither ctx nor the environment globals provide. It returns
// the names it marked.
func (e *Environment) markUndefined(tmpl *pongo2.Template, ctx pongo2.Context) []string {
	if !e.strict {
		return nil
	}

	e.mu.RLock()
	names, ok := e.referenced[tmpl]
	e.mu.RUnlock()
	if !ok {
		names = referencedNames(tmpl)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var marked []string
	for _, name := range names {
		if _, ok := ctx[name]; ok {
			continue
		}
		if _, ok := e.templateSet.Globals[name]; ok {
			continue
		}
		ctx[name] = undefined("")
		marked = append(marked, name)
	}
	return marked
}
