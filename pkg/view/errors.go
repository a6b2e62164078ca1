package view

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-viewengine/pkg/render/template/jinja"
)

var (
	// ErrMissingTemplatesDir marks construction against a root that does not
	// exist or is not a directory.
	ErrMissingTemplatesDir = errors.New("missing templates directory")
	// ErrTemplateNotFound marks lookups of unknown template names.
	ErrTemplateNotFound = jinja.ErrTemplateNotFound
	// ErrInvalidTemplateName marks empty, absolute or root-escaping names.
	ErrInvalidTemplateName = jinja.ErrInvalidTemplateName
	// ErrClosed is returned by renders on a closed View.
	ErrClosed = errors.New("view: closed")
)

// ConstructionError reports a View that could not be built. It is always
// fatal; nothing retries it.
type ConstructionError struct {
	Path string
	Err  error
}

func (e *ConstructionError) Error() string {
	if errors.Is(e.Err, ErrMissingTemplatesDir) {
		return fmt.Sprintf("view: missing templates directory: `%s`", e.Path)
	}
	return fmt.Sprintf("view: build templates from `%s`: %v", e.Path, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// LookupError reports a template that could not be found or parsed.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("view: lookup template %q: %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ExecutionError reports a template that failed while rendering.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("view: render template %q: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// RebuildError reports a failed environment rebuild after a detected change.
type RebuildError struct {
	Root string
	Err  error
}

func (e *RebuildError) Error() string {
	return fmt.Sprintf("view: rebuild templates from `%s`: %v", e.Root, e.Err)
}

func (e *RebuildError) Unwrap() error { return e.Err }
