// Package view renders named templates from a directory for web handlers.
//
// A View is built once, from Build (assets/templates) or FromDir, and then
// shared by every request. In ModeStatic the template environment is created
// at construction and reused for the life of the process. In ModeWatching
// each render first asks a file-system observer whether anything under the
// root changed and, if so, rebuilds the environment before looking the
// template up:
//
//	v, err := view.FromDir("assets/templates", view.WithMode(view.ModeWatching))
//	if err != nil {
//		return err
//	}
//	defer v.Close()
//
//	html, err := v.RenderHTML("home/index.html", map[string]any{"title": "Home"})
//
// Failures are typed: ConstructionError, LookupError, ExecutionError and
// RebuildError. None of them panic.
//
// Initializer and ConfigurableInitializer register a View with the host
// application (see package app), attaching it to every request context.
package view
