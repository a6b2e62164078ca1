package jinja

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	lru "github.com/hashicorp/golang-lru"

	"github.com/goliatone/go-viewengine/pkg/render/template"
)

var (
	// ErrTemplateNotFound is returned when no loader knows the requested name.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidTemplateName is returned for empty, absolute or escaping names.
	ErrInvalidTemplateName = errors.New("invalid template name")
)

// Environment owns a pongo2 template set bound to an optional root directory,
// plus a bounded registry of compiled templates. Templates compile lazily on
// first lookup.
type Environment struct {
	mu sync.RWMutex

	name      string
	root      string
	ext       string
	debug     bool
	strict    bool
	cacheSize int

	templateSet *pongo2.TemplateSet
	memory      *memoryLoader
	templates   *lru.Cache
	referenced  map[*pongo2.Template][]string
	globals     pongo2.Context
}

// Ensure Environment implements the ViewRenderer interface.
var _ template.ViewRenderer = (*Environment)(nil)

// New constructs an unbound Environment. Use Bind to attach a template
// directory; an unbound environment only serves in-memory templates.
func New(options ...Option) (*Environment, error) {
	cfg := &config{
		name:      "jinja",
		cacheSize: DefaultCacheSize,
		strict:    true,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	env := &Environment{
		name:      cfg.name,
		ext:       cfg.extension,
		debug:     cfg.debug,
		strict:    cfg.strict,
		cacheSize: cfg.cacheSize,
		memory:    newMemoryLoader(),
		globals:   make(pongo2.Context),
	}
	if err := env.reset(); err != nil {
		return nil, err
	}
	if err := env.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("jinja: apply global data: %w", err)
	}
	for name, fn := range cfg.templateFn {
		if err := env.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("jinja: register template func %q: %w", name, err)
		}
	}
	for name, source := range cfg.sources {
		if err := env.AddTemplate(name, source); err != nil {
			return nil, err
		}
	}

	return env, nil
}

// reset rebuilds the template set and drops every compiled template. Callers
// must hold e.mu or own e exclusively.
func (e *Environment) reset() error {
	var loaders []pongo2.TemplateLoader
	if e.root != "" {
		local, err := pongo2.NewLocalFileSystemLoader(e.root)
		if err != nil {
			return fmt.Errorf("jinja: create local loader: %w", err)
		}
		loaders = append(loaders, local)
	}
	e.memory.bind(e.root)
	loaders = append(loaders, e.memory)

	referenced := make(map[*pongo2.Template][]string)
	cache, err := lru.NewWithEvict(e.cacheSize, func(_ any, value any) {
		if tmpl, ok := value.(*pongo2.Template); ok {
			delete(referenced, tmpl)
		}
	})
	if err != nil {
		return fmt.Errorf("jinja: create template cache: %w", err)
	}

	set := pongo2.NewSet(e.name, loaders...)
	set.Debug = e.debug
	set.Globals = make(pongo2.Context, len(e.globals))
	set.Globals.Update(e.globals)

	e.templateSet = set
	e.templates = cache
	e.referenced = referenced
	return nil
}

// Clone returns an independent copy sharing configuration, globals and
// in-memory templates but none of the compiled templates.
func (e *Environment) Clone() (*Environment, error) {
	if e == nil {
		return nil, errors.New("jinja: environment is nil")
	}

	e.mu.RLock()
	out := &Environment{
		name:      e.name,
		root:      e.root,
		ext:       e.ext,
		debug:     e.debug,
		strict:    e.strict,
		cacheSize: e.cacheSize,
		memory:    e.memory.clone(),
		globals:   make(pongo2.Context, len(e.globals)),
	}
	out.globals.Update(e.globals)
	e.mu.RUnlock()

	if err := out.reset(); err != nil {
		return nil, err
	}
	return out, nil
}

// Bind returns a clone of e that loads templates from root. The receiver is
// left untouched so it can serve as a base for repeated builds.
func (e *Environment) Bind(root string) (*Environment, error) {
	out, err := e.Clone()
	if err != nil {
		return nil, err
	}
	out.root = root
	if err := out.reset(); err != nil {
		return nil, err
	}
	return out, nil
}

// Root returns the directory the environment is bound to, if any.
func (e *Environment) Root() string {
	return e.root
}

// Extension returns the extension appended to bare template names.
func (e *Environment) Extension() string {
	return e.ext
}

// AddTemplate registers an in-memory template, replacing any previous source
// under the same name. Like files, it compiles on first lookup, so templates
// may extend one another regardless of the order they were added in. Every
// compiled template is dropped, since any of them may extend or include the
// replaced one.
func (e *Environment) AddTemplate(name, source string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.memory.set(clean, source)
	e.templates.Purge()
	return nil
}

// Template looks up and compiles the named template, caching the result.
func (e *Environment) Template(name string) (*pongo2.Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("jinja: environment is nil")
	}

	clean, err := CleanName(e.withExtension(name))
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	if cached, ok := e.templates.Get(clean); ok {
		e.mu.RUnlock()
		return cached.(*pongo2.Template), nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if cached, ok := e.templates.Get(clean); ok {
		return cached.(*pongo2.Template), nil
	}

	if !e.exists(clean) {
		return nil, fmt.Errorf("jinja: template %q: %w", clean, ErrTemplateNotFound)
	}

	tmpl, err := e.templateSet.FromFile(clean)
	if err != nil {
		return nil, fmt.Errorf("jinja: load template %q: %w", clean, err)
	}

	e.referenced[tmpl] = referencedNames(tmpl)
	e.templates.Add(clean, tmpl)
	return tmpl, nil
}

// Execute runs tmpl against data. Engine panics are reported as errors, as
// is attribute access on a variable the data does not define (unless the
// environment was built with WithStrictUndefined(false)).
func (e *Environment) Execute(tmpl *pongo2.Template, data any, out ...io.Writer) (rendered string, err error) {
	if tmpl == nil {
		return "", errors.New("jinja: template is nil")
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("jinja: convert data: %w", err)
	}

	marked := e.markUndefined(tmpl, viewContext)

	var buf bytes.Buffer
	if err := executeWriter(tmpl, viewContext, &buf); err != nil {
		if len(marked) > 0 {
			return "", fmt.Errorf("%w (undefined: %s)", err, strings.Join(marked, ", "))
		}
		return "", err
	}

	rendered = buf.String()
	if err := template.WriteAll(rendered, out...); err != nil {
		return "", err
	}
	return rendered, nil
}

func executeWriter(tmpl *pongo2.Template, ctx pongo2.Context, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jinja: template panicked: %v", r)
		}
	}()
	return tmpl.ExecuteWriter(ctx, w)
}

// Render looks up name and executes it against data.
func (e *Environment) Render(name string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.Template(name)
	if err != nil {
		return "", err
	}
	rendered, err := e.Execute(tmpl, data, out...)
	if err != nil {
		return "", fmt.Errorf("jinja: execute template %q: %w", name, err)
	}
	return rendered, nil
}

// RenderHTML is Render tagged as markup-safe.
func (e *Environment) RenderHTML(name string, data any) (htmltemplate.HTML, error) {
	rendered, err := e.Render(name, data)
	if err != nil {
		return "", err
	}
	return htmltemplate.HTML(rendered), nil
}

// RenderString parses and executes templateContent without registering it.
func (e *Environment) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("jinja: environment is nil")
	}

	e.mu.RLock()
	tmpl, err := e.templateSet.FromString(templateContent)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("jinja: parse template string: %w", err)
	}
	return e.Execute(tmpl, data, out...)
}

// RegisterFilter registers a template filter. pongo2 filters are process
// wide, so a filter registered here is visible to every environment.
func (e *Environment) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("jinja: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("jinja: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext seeds global data visible to every template of this
// environment and of its clones.
func (e *Environment) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("jinja: environment is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.globals.Update(globalCtx)
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

// AddFunction exposes fn as a callable global.
func (e *Environment) AddFunction(name string, fn any) error {
	if !isCallable(fn) {
		return fmt.Errorf("jinja: function %q is not callable", name)
	}
	return e.registerTemplateFunc(name, fn)
}

func (e *Environment) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}
	if filter, ok := fn.(func(*pongo2.Value, *pongo2.Value) (*pongo2.Value, *pongo2.Error)); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.globals[trimmed] = fn
	e.templateSet.Globals[trimmed] = fn
	return nil
}

// Names lists every template the environment can serve: files under the
// bound root (filtered by extension when one is configured) and in-memory
// templates. Hidden files and directories are skipped.
func (e *Environment) Names() ([]string, error) {
	seen := make(map[string]struct{})
	var names []string

	if e.root != "" {
		err := filepath.WalkDir(e.root, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if p != e.root && strings.HasPrefix(entry.Name(), ".") {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if e.ext != "" && !strings.HasSuffix(entry.Name(), e.ext) {
				return nil
			}
			rel, err := filepath.Rel(e.root, p)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			seen[name] = struct{}{}
			names = append(names, name)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("jinja: list templates in %s: %w", e.root, err)
		}
	}

	for _, name := range e.memory.names() {
		if _, ok := seen[name]; ok {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Preload compiles every template returned by Names, reporting all parse
// failures at once.
func (e *Environment) Preload() error {
	names, err := e.Names()
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if _, err := e.Template(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Environment) exists(name string) bool {
	if e.root != "" {
		info, err := os.Stat(filepath.Join(e.root, filepath.FromSlash(name)))
		if err == nil && !info.IsDir() {
			return true
		}
	}
	return e.memory.has(name)
}

func (e *Environment) withExtension(name string) string {
	if e.ext == "" || strings.HasSuffix(name, e.ext) {
		return name
	}
	return name + e.ext
}

// CleanName normalises a template name to a slash-separated path relative to
// the template root. Empty names, absolute paths and names escaping the root
// are rejected.
func CleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("jinja: empty name: %w", ErrInvalidTemplateName)
	}
	slashed := filepath.ToSlash(trimmed)
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(trimmed) {
		return "", fmt.Errorf("jinja: %q is absolute: %w", name, ErrInvalidTemplateName)
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("jinja: %q escapes the template root: %w", name, ErrInvalidTemplateName)
	}
	return clean, nil
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}
