package template

import (
	"html/template"
	"io"
)

// ViewRenderer is the capability the host framework's view layer expects from
// a template engine. Data may be any value that serialises to an object;
// callers receive either the rendered text or an error describing why the
// template could not be found or executed.
type ViewRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderHTML(name string, data any) (template.HTML, error)
}

// RenderFunc adapts a plain render function to the ViewRenderer contract.
// RenderHTML wraps the Render result without altering its bytes.
type RenderFunc func(name string, data any) (string, error)

// Render calls f and copies the result to every writer in out.
func (f RenderFunc) Render(name string, data any, out ...io.Writer) (string, error) {
	rendered, err := f(name, data)
	if err != nil {
		return "", err
	}
	if err := WriteAll(rendered, out...); err != nil {
		return "", err
	}
	return rendered, nil
}

// RenderHTML calls f and tags the result as markup-safe.
func (f RenderFunc) RenderHTML(name string, data any) (template.HTML, error) {
	rendered, err := f(name, data)
	if err != nil {
		return "", err
	}
	return template.HTML(rendered), nil
}

// WriteAll writes rendered to each writer, stopping at the first failure.
func WriteAll(rendered string, out ...io.Writer) error {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return err
		}
	}
	return nil
}
