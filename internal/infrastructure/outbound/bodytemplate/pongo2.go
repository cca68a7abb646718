// Package bodytemplate implements the optional Jinja2-style response body
// renderer selectable per-response via response.template_engine == "pongo2",
// an alternative to the core {{path[i]}}/{{body.x}} placeholder grammar.
package bodytemplate

import (
	"fmt"
	"time"

	"github.com/flosch/pongo2/v6"
)

// Context carries the values exposed to a Pongo2 template.
type Context struct {
	Method      string
	Path        string
	PathParams  map[string]string
	QueryParams map[string]string
	Headers     map[string]string
	Body        any
	Now         time.Time
}

// Renderer compiles and renders Pongo2 templates.
type Renderer struct{}

// NewRenderer returns a ready-to-use Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render compiles source as a Pongo2 template and renders it against ctx.
func (r *Renderer) Render(source string, ctx Context) ([]byte, error) {
	tpl, err := pongo2.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("compile pongo2 template: %w", err)
	}

	out, err := tpl.Execute(pongo2.Context{
		"method":      ctx.Method,
		"path":        ctx.Path,
		"pathParams":  ctx.PathParams,
		"queryParams": ctx.QueryParams,
		"headers":     ctx.Headers,
		"body":        ctx.Body,
		"now":         ctx.Now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("render pongo2 template: %w", err)
	}
	return []byte(out), nil
}
