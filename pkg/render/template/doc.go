// Package template defines the renderer-agnostic view contract shared by the
// host application and the template engine adapters living under it.
package template
