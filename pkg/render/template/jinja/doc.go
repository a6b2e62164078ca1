// Package jinja adapts pongo2's Django/Jinja-style engine to the view
// contract. An Environment binds a template set to a directory, compiles
// templates lazily by name and executes them against any JSON-serialisable
// payload.
package jinja
